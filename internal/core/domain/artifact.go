package domain

import "sort"

// ArtifactRecord is one indexed artifact file.
// Records are immutable once built; the index replaces them wholesale.
type ArtifactRecord struct {
	// Identity is the component name and the index key. Case-sensitive.
	Identity string

	// Deployments holds the per-network deployment records.
	Deployments Deployments

	// SourcePath is the absolute path of the file that produced the record.
	SourcePath string

	// Raw is the full parsed document.
	Raw map[string]any

	// Digest identifies the exact file bytes the record was parsed from.
	Digest string

	// Format names the parser that produced the record (e.g. "json").
	Format string
}

// WithSource returns a copy of the record bound to a path and content digest.
func (r *ArtifactRecord) WithSource(path, digest string) *ArtifactRecord {
	c := *r
	c.SourcePath = path
	c.Digest = digest
	return &c
}

// AddressField is the network entry key holding the deployment address.
const AddressField = "address"

// DeploymentInfo is the deployment of an artifact on one network.
type DeploymentInfo struct {
	// Address is the lower-cased deployment address. Not validated.
	Address string

	// Fields holds every key of the network entry verbatim.
	Fields map[string]any
}

// Deployments is either "no deployments" or a mapping with at least one
// network entry. The zero value is NoDeployments.
type Deployments struct {
	byNetwork map[string]DeploymentInfo
}

// NoDeployments returns the empty variant.
func NoDeployments() Deployments {
	return Deployments{}
}

// NewDeployments builds a Deployments from a network mapping.
// An empty mapping yields NoDeployments.
func NewDeployments(byNetwork map[string]DeploymentInfo) Deployments {
	if len(byNetwork) == 0 {
		return NoDeployments()
	}
	m := make(map[string]DeploymentInfo, len(byNetwork))
	for k, v := range byNetwork {
		m[k] = v
	}
	return Deployments{byNetwork: m}
}

// Declared reports whether at least one network entry exists.
func (d Deployments) Declared() bool {
	return len(d.byNetwork) > 0
}

// Len returns the number of networks.
func (d Deployments) Len() int {
	return len(d.byNetwork)
}

// Get returns the deployment on a network.
func (d Deployments) Get(network string) (DeploymentInfo, bool) {
	info, ok := d.byNetwork[network]
	return info, ok
}

// Networks returns the network identifiers in sorted order.
func (d Deployments) Networks() []string {
	ids := make([]string, 0, len(d.byNetwork))
	for id := range d.byNetwork {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Each calls fn for every network in sorted order until fn returns false.
func (d Deployments) Each(fn func(network string, info DeploymentInfo) bool) {
	for _, id := range d.Networks() {
		if !fn(id, d.byNetwork[id]) {
			return
		}
	}
}
