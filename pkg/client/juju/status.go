package juju

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

const (
	agentIdle      = "idle"
	workloadActive = "active"
)

// Status is the subset of `juju status --format=json` used here.
type Status struct {
	Applications map[string]Application `json:"applications"`
	Machines     map[string]Machine     `json:"machines"`
}

// Application lists the units of one application.
type Application struct {
	Units map[string]UnitStatus `json:"units"`
}

// UnitStatus describes one unit.
type UnitStatus struct {
	Machine        string     `json:"machine"`
	PublicAddress  string     `json:"public-address"`
	WorkloadStatus StatusInfo `json:"workload-status"`
	AgentStatus    StatusInfo `json:"juju-status"`
}

// StatusInfo is a juju status value.
type StatusInfo struct {
	Current string `json:"current"`
	Message string `json:"message,omitempty"`
}

// Machine describes one machine.
type Machine struct {
	Hostname   string `json:"hostname"`
	InstanceID string `json:"instance-id"`
	DNSName    string `json:"dns-name"`
}

// Unit is a deployed unit joined with its machine.
type Unit struct {
	Name       string
	Machine    string
	Address    string
	Hostname   string
	InstanceID string
}

// ParseStatus decodes `juju status --format=json` output.
func ParseStatus(data []byte) (*Status, error) {
	var status Status

	err := json.Unmarshal(data, &status)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidStatus, err)
	}

	return &status, nil
}

// Units returns the units of app ordered by unit number.
func (s *Status) Units(app string) ([]Unit, error) {
	application, ok := s.Applications[app]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrApplicationNotFound, app)
	}

	units := make([]Unit, 0, len(application.Units))

	for name, unit := range application.Units {
		machine, ok := s.Machines[unit.Machine]
		if !ok {
			return nil, fmt.Errorf("%w: unit %s references machine %q", ErrMachineNotFound, name, unit.Machine)
		}

		hostname := machine.Hostname
		if hostname == "" {
			hostname = machine.InstanceID
		}

		units = append(units, Unit{
			Name:       name,
			Machine:    unit.Machine,
			Address:    cmp.Or(unit.PublicAddress, machine.DNSName),
			Hostname:   hostname,
			InstanceID: machine.InstanceID,
		})
	}

	slices.SortFunc(units, func(a, b Unit) int {
		return cmp.Or(cmp.Compare(unitNumber(a.Name), unitNumber(b.Name)), cmp.Compare(a.Name, b.Name))
	})

	return units, nil
}

// Settled reports whether app has at least want units and all of them are
// idle and active. The returned message describes the first unsettled unit.
func (s *Status) Settled(app string, want int) (bool, string) {
	application, ok := s.Applications[app]
	if !ok {
		return false, "application " + app + " not deployed yet"
	}

	if len(application.Units) < want {
		return false, fmt.Sprintf("%d/%d units allocated", len(application.Units), want)
	}

	names := make([]string, 0, len(application.Units))
	for name := range application.Units {
		names = append(names, name)
	}

	slices.Sort(names)

	for _, name := range names {
		unit := application.Units[name]
		if unit.AgentStatus.Current != agentIdle || unit.WorkloadStatus.Current != workloadActive {
			return false, fmt.Sprintf(
				"%s is %s/%s",
				name, unit.AgentStatus.Current, unit.WorkloadStatus.Current,
			)
		}
	}

	return true, ""
}

// unitNumber returns the numeric suffix of app/N, or -1.
func unitNumber(name string) int {
	_, suffix, found := strings.Cut(name, "/")
	if !found {
		return -1
	}

	number, err := strconv.Atoi(suffix)
	if err != nil {
		return -1
	}

	return number
}
