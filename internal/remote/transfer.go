package remote

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"

	"github.com/m4sc0/new/internal/image"
	"github.com/m4sc0/new/internal/metadata"
	"github.com/m4sc0/new/internal/platform"
)

// Pull downloads ref into the local store and returns its path.
//
// An existing local entry is replaced without confirmation. The archive is
// extracted into a staging directory and must contain a valid
// template.json before it replaces anything.
func (c *Client) Pull(ref image.Reference) (string, error) {
	if err := ref.Validate(); err != nil {
		return "", err
	}
	if !ref.HasVersion() {
		return "", fmt.Errorf("%w: %s (resolve the version before pulling)", image.ErrInvalidReference, ref)
	}

	u := c.imageURL("get", ref)
	body, status, err := c.get("get", u)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("%w: image %s at %s (status %d)", image.ErrNotFound, ref, c.baseURL, status)
	}

	staging, err := c.store.StagingPath(ref)
	if err != nil {
		return "", err
	}
	if err := extractZip(body, staging); err != nil {
		_ = os.RemoveAll(staging)
		return "", &image.RemoteError{Op: "get", URL: u, StatusCode: status, Err: err}
	}
	if _, err := metadata.LoadValid(filepath.Join(staging, metadata.FileName)); err != nil {
		_ = os.RemoveAll(staging)
		return "", &image.RemoteError{Op: "get", URL: u, StatusCode: status, Err: fmt.Errorf("archive metadata: %w", err)}
	}

	target := c.store.Path(ref)
	if err := platform.ReplaceDir(staging, target); err != nil {
		return "", fmt.Errorf("installing %s: %w", ref, err)
	}
	c.logger.Debug().Str("ref", ref.ID()).Str("path", target).Msg("pulled image")
	return target, nil
}

// Push uploads the local entry for ref, authenticating with token.
func (c *Client) Push(ref image.Reference, token string) error {
	if !ref.HasVersion() {
		return fmt.Errorf("%w: %s (a version is required to push)", image.ErrInvalidReference, ref)
	}
	if token == "" {
		return fmt.Errorf("%w: no upload token configured", image.ErrAuth)
	}

	record, err := metadata.LoadValid(c.store.MetadataPath(ref))
	if errors.Is(err, image.ErrNotFound) {
		return fmt.Errorf("%w: image %s is not in the local store", image.ErrNotFound, ref)
	}
	if err != nil {
		return fmt.Errorf("reading metadata for %s: %w", ref, err)
	}

	body, contentType, err := uploadBody(ref, record, c.store.Path(ref))
	if err != nil {
		return err
	}

	u := c.baseURL + "/upload"
	req, err := http.NewRequest(http.MethodPost, u, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)

	respBody, status, err := c.do("upload", req)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return &image.RemoteError{Op: "upload", URL: u, StatusCode: status, Body: trimBody(respBody)}
	}
	c.logger.Debug().Str("ref", ref.ID()).Msg("pushed image")
	return nil
}

// uploadBody builds the multipart form for an upload.
func uploadBody(ref image.Reference, record *metadata.Record, dir string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"category", ref.Category},
		{"name", ref.Name},
		{"version", ref.Version},
		{"description", record.Description},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("writing form field %s: %w", f[0], err)
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, archiveName(ref)))
	h.Set("Content-Type", "application/zip")
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("creating file part: %w", err)
	}
	if err := writeZip(dir, part); err != nil {
		return nil, "", fmt.Errorf("archiving %s: %w", dir, err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func archiveName(ref image.Reference) string {
	return ref.Category + "-" + ref.Name + "-" + ref.Version + ".zip"
}
