// Package config defines the input and output configuration documents
// of §6: the structured record the surrounding compiler hands in, and
// the same document augmented with floorplan/route/balance results.
package config

// VertexConfig is one entry of InputConfig.Vertices.
type VertexConfig struct {
	Category   string         `yaml:"category"`
	Module     string         `yaml:"module"`
	Area       map[string]int `yaml:"area"`
	PortCat    string         `yaml:"port_cat,omitempty"`
	PortID     int            `yaml:"port_id,omitempty"`
	TopArgName string         `yaml:"top_arg_name,omitempty"`
}

// EdgeConfig is one entry of InputConfig.Edges.
type EdgeConfig struct {
	ProducedBy string `yaml:"produced_by"`
	ConsumedBy string `yaml:"consumed_by"`
	Width      int    `yaml:"width"`
	Depth      int    `yaml:"depth"`
	Category   string `yaml:"category"`
}

// InputConfig is the document consumed from the surrounding compiler.
type InputConfig struct {
	PartNum                 string                  `yaml:"part_num"`
	Vertices                map[string]VertexConfig `yaml:"vertices"`
	Edges                   map[string]EdgeConfig   `yaml:"edges"`
	GroupingConstraints     [][]string              `yaml:"grouping_constraints,omitempty"`
	FloorplanPreAssignments map[string][]string     `yaml:"floorplan_pre_assignments,omitempty"`

	FloorplanStrategy    string  `yaml:"floorplan_strategy,omitempty"`
	FloorplanOptPriority string  `yaml:"floorplan_opt_priority,omitempty"`
	MinAreaLimit         float64 `yaml:"min_area_limit,omitempty"`
	MaxAreaLimit         float64 `yaml:"max_area_limit,omitempty"`
	MinSLRWidthLimit     float64 `yaml:"min_slr_width_limit,omitempty"`
	MaxSLRWidthLimit     float64 `yaml:"max_slr_width_limit,omitempty"`
	MaxSearchTime        float64 `yaml:"max_search_time,omitempty"`

	EnableHBMBindingAdjustment bool `yaml:"enable_hbm_binding_adjustment,omitempty"`
}

// OutputVertex augments VertexConfig with floorplan results.
type OutputVertex struct {
	VertexConfig    `yaml:",inline"`
	FloorplanRegion string `yaml:"floorplan_region,omitempty"`
	SLR             int    `yaml:"SLR"`
}

// OutputEdge augments EdgeConfig with routing/balancing results.
type OutputEdge struct {
	EdgeConfig    `yaml:",inline"`
	Path          []string `yaml:"path,omitempty"`
	AdjustedDepth int      `yaml:"adjusted_depth,omitempty"`
}

// FloorplanStatus is the two-valued outcome of the floorplan/route/balance
// pipeline.
type FloorplanStatus string

const (
	StatusSucceed FloorplanStatus = "SUCCEED"
	StatusFailed  FloorplanStatus = "FAILED"
)

// OutputConfig is InputConfig augmented with the annotated results of
// §4.1-§4.4.
type OutputConfig struct {
	PartNum                 string                  `yaml:"part_num"`
	Vertices                map[string]OutputVertex `yaml:"vertices"`
	Edges                   map[string]OutputEdge   `yaml:"edges"`
	GroupingConstraints     [][]string              `yaml:"grouping_constraints,omitempty"`
	FloorplanPreAssignments map[string][]string     `yaml:"floorplan_pre_assignments,omitempty"`

	FloorplanRegionPblockTCL map[string]string            `yaml:"floorplan_region_pblock_tcl,omitempty"`
	SlotResourceUsage        map[string]map[string]float64 `yaml:"slot_resource_usage,omitempty"`
	FloorplanStatus          FloorplanStatus               `yaml:"floorplan_status"`
	ActualSLRWidthUsage      map[string]float64            `yaml:"actual_slr_width_usage,omitempty"`
	ActualAreaUsage          map[string]float64            `yaml:"actual_area_usage,omitempty"`
	NewHBMBinding            map[string]int                `yaml:"new_hbm_binding,omitempty"`
}
