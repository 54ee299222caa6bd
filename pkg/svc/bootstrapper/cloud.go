package bootstrapper

import (
	"fmt"

	"sigs.k8s.io/yaml"
)

const authTypeUserPass = "userpass"

type cloudsFile struct {
	Clouds map[string]cloudDefinition `json:"clouds"`
}

type cloudDefinition struct {
	Type      string                 `json:"type"`
	AuthTypes []string               `json:"auth-types"`
	Endpoint  string                 `json:"endpoint"`
	Regions   map[string]cloudRegion `json:"regions"`
}

type cloudRegion struct {
	Endpoint string `json:"endpoint"`
}

type credentialsFile struct {
	Credentials map[string]map[string]credentialDefinition `json:"credentials"`
}

type credentialDefinition struct {
	AuthType          string `json:"auth-type"`
	DomainName        string `json:"domain-name,omitempty"`
	ProjectDomainName string `json:"project-domain-name"`
	UserDomainName    string `json:"user-domain-name"`
	TenantName        string `json:"tenant-name"`
	Username          string `json:"username"`
	Password          string `json:"password"`
	Version           string `json:"version"`
}

// CloudYAML renders the `juju add-cloud` definition of an OpenStack cloud.
func CloudYAML(cloud string, creds OpenStackCredentials) ([]byte, error) {
	data, err := yaml.Marshal(cloudsFile{Clouds: map[string]cloudDefinition{
		cloud: {
			Type:      "openstack",
			AuthTypes: []string{authTypeUserPass},
			Endpoint:  creds.AuthURL,
			Regions: map[string]cloudRegion{
				creds.Region: {Endpoint: creds.AuthURL},
			},
		},
	}})
	if err != nil {
		return nil, fmt.Errorf("failed to render cloud definition: %w", err)
	}

	return data, nil
}

// CredentialsYAML renders the `juju add-credential` file for cloud.
// The credential is named after the user.
func CredentialsYAML(cloud string, creds OpenStackCredentials) ([]byte, error) {
	data, err := yaml.Marshal(credentialsFile{Credentials: map[string]map[string]credentialDefinition{
		cloud: {
			creds.Username: {
				AuthType:          authTypeUserPass,
				ProjectDomainName: creds.Domain,
				UserDomainName:    creds.Domain,
				TenantName:        creds.Project,
				Username:          creds.Username,
				Password:          creds.Password,
				Version:           "3",
			},
		},
	}})
	if err != nil {
		return nil, fmt.Errorf("failed to render credentials: %w", err)
	}

	return data, nil
}
