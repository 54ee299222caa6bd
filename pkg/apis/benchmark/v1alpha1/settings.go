package v1alpha1

// DefaultChannel is the MicroK8s snap channel installed when none is given.
const DefaultChannel = "1.24/stable"

// Settings is the node configuration assembled once at startup.
// Flags take precedence over the environment.
type Settings struct {
	Username string `json:"username,omitempty" mapstructure:"username"`
	Password string `json:"-"                  mapstructure:"password"`
	Proxy    string `json:"proxy,omitempty"    mapstructure:"proxy"`
	Channel  string `json:"channel,omitempty"  mapstructure:"channel"`
}

// HasRegistryCredentials reports whether registry credentials were supplied.
func (s Settings) HasRegistryCredentials() bool {
	return s.Username != "" && s.Password != ""
}

// Validate checks the settings, defaulting an empty channel.
func (s *Settings) Validate() error {
	if s.Channel == "" {
		s.Channel = DefaultChannel
	}

	err := ValidateChannel(s.Channel)
	if err != nil {
		return err
	}

	err = ValidateProxy(s.Proxy)
	if err != nil {
		return err
	}

	if (s.Username == "") != (s.Password == "") {
		return ErrIncompleteRegistryCredentials
	}

	return nil
}
