// Package placeholder resolves the values substituted into a rendered
// project. Automatic values derived from the invocation context always win;
// the remaining declared placeholders are answered by a pluggable Resolver,
// typically an interactive prompt.
package placeholder

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/m4sc0/new/internal/branding"
	"github.com/m4sc0/new/internal/image"
)

// Keys of the automatically generated values.
const (
	KeyProjectName     = "project_name"
	KeyProjectTitle    = "project_title"
	KeyDate            = "date"
	KeyTime            = "time"
	KeyDatetime        = "datetime"
	KeyYear            = "year"
	KeyTimestamp       = "timestamp"
	KeyUser            = "user"
	KeyHostname        = "hostname"
	KeyOS              = "os"
	KeyTemplate        = "template"
	KeyTemplateName    = "template_name"
	KeyTemplateVersion = "template_version"
	KeyUUID            = "uuid"
	KeyMachineID       = "machine_id"
)

// AutoKeys lists every key Auto may produce, in display order.
var AutoKeys = []string{
	KeyProjectName, KeyProjectTitle,
	KeyDate, KeyTime, KeyDatetime, KeyYear, KeyTimestamp,
	KeyUser, KeyHostname, KeyOS,
	KeyTemplate, KeyTemplateName, KeyTemplateVersion,
	KeyUUID, KeyMachineID,
}

// ErrUnresolved is returned when a declared placeholder has no value.
var ErrUnresolved = errors.New("unresolved placeholder")

// Context is the invocation state automatic values are derived from.
type Context struct {
	ProjectName string
	Template    image.Reference
	Now         time.Time
}

// NewContext returns a Context stamped with the current time.
func NewContext(projectName string, tmpl image.Reference) Context {
	return Context{ProjectName: projectName, Template: tmpl, Now: time.Now()}
}

// Auto returns the automatic values for ctx. Values that cannot be
// determined on this machine (user, hostname, machine_id) are omitted.
func Auto(ctx Context) map[string]string {
	now := ctx.Now
	if now.IsZero() {
		now = time.Now()
	}

	values := map[string]string{
		KeyProjectName:     ctx.ProjectName,
		KeyProjectTitle:    Title(ctx.ProjectName),
		KeyDate:            now.Format(time.DateOnly),
		KeyTime:            now.Format(time.TimeOnly),
		KeyDatetime:        now.Format(time.RFC3339),
		KeyYear:            strconv.Itoa(now.Year()),
		KeyTimestamp:       strconv.FormatInt(now.Unix(), 10),
		KeyOS:              runtime.GOOS,
		KeyTemplate:        ctx.Template.String(),
		KeyTemplateName:    ctx.Template.Name,
		KeyTemplateVersion: ctx.Template.Version,
		KeyUUID:            uuid.NewString(),
	}
	if name := currentUser(); name != "" {
		values[KeyUser] = name
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		values[KeyHostname] = host
	}
	if id, err := machineid.ProtectedID(branding.CLIName()); err == nil {
		values[KeyMachineID] = id
	}
	return values
}

// Title turns a project name such as "my-cool_app" into "My Cool App".
func Title(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	caser := cases.Title(language.English)
	for i, w := range words {
		words[i] = caser.String(w)
	}
	return strings.Join(words, " ")
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return os.Getenv("USERNAME")
}

// Pending returns the declared placeholders that automatic values do not
// cover, in declaration order.
func Pending(declared []string, auto map[string]string) []string {
	var out []string
	for _, key := range declared {
		if _, ok := auto[key]; !ok {
			out = append(out, key)
		}
	}
	return out
}

// Resolve builds the complete replacement map for a render: the automatic
// values for ctx plus a value from fallback for every declared placeholder
// they do not cover. It fails with ErrUnresolved if fallback cannot answer.
func Resolve(declared []string, ctx Context, fallback Resolver) (map[string]string, error) {
	values := Auto(ctx)
	for _, key := range Pending(declared, values) {
		if fallback == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnresolved, key)
		}
		v, ok, err := fallback.Resolve(key)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", key, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnresolved, key)
		}
		values[key] = v
	}
	return values, nil
}
