package bootstrapper

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/devantler-tech/scalebench/pkg/cli/ui/prompt"
)

// OpenStackCredentials authenticate juju against OpenStack.
type OpenStackCredentials struct {
	AuthURL  string
	Region   string
	Project  string
	Domain   string
	Username string
	Password string
}

// credentialField binds one credential to its environment variable and prompt.
type credentialField struct {
	env    string
	label  string
	secret bool
	value  *string
}

func (c *OpenStackCredentials) fields() []credentialField {
	return []credentialField{
		{env: "OS_AUTH_URL", label: "Auth URL", value: &c.AuthURL},
		{env: "OS_REGION_NAME", label: "Region", value: &c.Region},
		{env: "OS_PROJECT_NAME", label: "Project", value: &c.Project},
		{env: "OS_USER_DOMAIN_NAME", label: "Domain", value: &c.Domain},
		{env: "OS_USERNAME", label: "Username", value: &c.Username},
		{env: "OS_PASSWORD", label: "Password", secret: true, value: &c.Password},
	}
}

// ResolveCredentials completes given (from flags) with getenv and then the
// prompter. When a value is still missing and the prompter is not interactive,
// ErrMissingCredential names every missing variable.
func ResolveCredentials(
	given OpenStackCredentials,
	getenv func(string) string,
	prompter prompt.Prompter,
) (OpenStackCredentials, error) {
	resolved := given

	var missing []credentialField

	for _, field := range resolved.fields() {
		if *field.value == "" && getenv != nil {
			*field.value = strings.TrimSpace(getenv(field.env))
		}

		if *field.value == "" {
			missing = append(missing, field)
		}
	}

	if len(missing) > 0 {
		if prompter == nil || !prompter.Interactive() {
			names := make([]string, 0, len(missing))
			for _, field := range missing {
				names = append(names, field.env)
			}

			return OpenStackCredentials{}, fmt.Errorf("%w: set %s", ErrMissingCredential, strings.Join(names, ", "))
		}

		for _, field := range missing {
			err := ask(prompter, field)
			if err != nil {
				return OpenStackCredentials{}, err
			}
		}
	}

	return resolved, resolved.Validate()
}

// Validate checks that every field is set and the auth URL is usable.
func (c OpenStackCredentials) Validate() error {
	for _, field := range c.fields() {
		if *field.value == "" {
			return fmt.Errorf("%w: %s", ErrMissingCredential, field.env)
		}
	}

	parsed, err := url.Parse(c.AuthURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidAuthURL, c.AuthURL)
	}

	return nil
}

func ask(prompter prompt.Prompter, field credentialField) error {
	var (
		answer string
		err    error
	)

	if field.secret {
		answer, err = prompter.AskSecret(field.label)
	} else {
		answer, err = prompter.Ask(field.label)
	}

	if err != nil {
		return err
	}

	if answer == "" {
		return fmt.Errorf("%w: %s", ErrMissingCredential, field.env)
	}

	*field.value = answer

	return nil
}
