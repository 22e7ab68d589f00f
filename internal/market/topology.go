package market

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"xivmarket/internal/cache"
	"xivmarket/internal/errx"
	"xivmarket/internal/models"
)

// Scope is the kind of server a name refers to. Values are bit flags so a
// set of accepted scopes can be expressed as a mask.
type Scope int

const (
	ScopeWorld Scope = 1 << iota
	ScopeDataCenter
	ScopeRegion

	AnyScope = ScopeWorld | ScopeDataCenter | ScopeRegion
)

func (s Scope) String() string {
	switch s {
	case ScopeWorld:
		return "world"
	case ScopeDataCenter:
		return "dc"
	case ScopeRegion:
		return "region"
	}
	var parts []string
	for _, one := range []Scope{ScopeWorld, ScopeDataCenter, ScopeRegion} {
		if s&one != 0 {
			parts = append(parts, one.String())
		}
	}
	return strings.Join(parts, "/")
}

// Allows reports whether a server of scope other satisfies the mask s.
func (s Scope) Allows(other Scope) bool {
	return s&other != 0
}

// Server is a resolved server name in its canonical spelling.
type Server struct {
	Name  string `json:"name"`
	Scope Scope  `json:"scope"`
}

// TopologySource lists the live worlds and data centers.
type TopologySource interface {
	Worlds(ctx context.Context) ([]models.World, error)
	DataCenters(ctx context.Context) ([]models.DataCenter, error)
}

var ErrTopologyNotInitialized = errors.New("server topology not initialized")

// Topology resolves server names against the live world and data center
// lists and the configured regions. It is loaded once by Init.
type Topology struct {
	source  TopologySource
	cache   cache.Cache
	regions []models.Region

	worlds []models.World
	dcs    []models.DataCenter
	ready  bool
}

func NewTopology(source TopologySource, c cache.Cache, regions []models.Region) *Topology {
	return &Topology{source: source, cache: c, regions: regions}
}

func (t *Topology) Init(ctx context.Context) error {
	worlds, err := cache.Fetch(ctx, t.cache, "universalis:worlds", t.source.Worlds)
	if err != nil {
		return fmt.Errorf("failed to load worlds: %w", err)
	}
	dcs, err := cache.Fetch(ctx, t.cache, "universalis:data-centers", t.source.DataCenters)
	if err != nil {
		return fmt.Errorf("failed to load data centers: %w", err)
	}
	t.worlds, t.dcs, t.ready = worlds, dcs, true
	return nil
}

// Lookup finds server among worlds, then data centers, then regions,
// ignoring case.
func (t *Topology) Lookup(server string) (Server, error) {
	if !t.ready {
		return Server{}, ErrTopologyNotInitialized
	}
	name := strings.TrimSpace(server)
	for _, w := range t.worlds {
		if strings.EqualFold(w.Name, name) {
			return Server{Name: w.Name, Scope: ScopeWorld}, nil
		}
	}
	for _, dc := range t.dcs {
		if strings.EqualFold(dc.Name, name) {
			return Server{Name: dc.Name, Scope: ScopeDataCenter}, nil
		}
	}
	for _, r := range t.regions {
		if strings.EqualFold(r.Name, name) {
			return Server{Name: r.Name, Scope: ScopeRegion}, nil
		}
	}
	return Server{}, errx.NotFound("%s was not found in any database", name)
}

// ScopeOf returns only the scope of server.
func (t *Topology) ScopeOf(server string) (Scope, error) {
	s, err := t.Lookup(server)
	return s.Scope, err
}

func (t *Topology) Worlds() []models.World { return t.worlds }

func (t *Topology) DataCenters() []models.DataCenter { return t.dcs }

func (t *Topology) Regions() []models.Region { return t.regions }
