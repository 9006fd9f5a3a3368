package placeholder

// Resolver supplies a value for a placeholder key. ok is false when the
// resolver has no answer and the next resolver should be asked.
type Resolver interface {
	Resolve(key string) (value string, ok bool, err error)
}

// Static answers from a fixed map, e.g. values passed with --set.
type Static map[string]string

func (s Static) Resolve(key string) (string, bool, error) {
	v, ok := s[key]
	return v, ok, nil
}

// PromptFunc asks the user for the value of key.
type PromptFunc func(key string) (string, error)

// Interactive returns a resolver that answers every key by calling prompt.
func Interactive(prompt PromptFunc) Resolver {
	return interactive{prompt: prompt}
}

type interactive struct {
	prompt PromptFunc
}

func (i interactive) Resolve(key string) (string, bool, error) {
	v, err := i.prompt(key)
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Chain asks each resolver in order and returns the first answer.
type Chain []Resolver

func (c Chain) Resolve(key string) (string, bool, error) {
	for _, r := range c {
		if r == nil {
			continue
		}
		v, ok, err := r.Resolve(key)
		if err != nil || ok {
			return v, ok, err
		}
	}
	return "", false, nil
}
