package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// paramType is the declared JSON type of a tool parameter.
type paramType int

const (
	paramString paramType = iota
	paramInt
)

// toolParam describes one declared tool parameter and how it reaches the
// outbound request.
type toolParam struct {
	name        string // tool-facing name
	queryKey    string // upstream query key; defaults to name when empty
	description string
	typ         paramType
	required    bool   // must be supplied by the caller
	inPath      bool   // interpolated into the endpoint path instead of the query
	defString   string // default for optional strings; empty values are omitted
	defInt      int    // default for integers; always sent, defaults included
}

func (p toolParam) upstreamKey() string {
	if p.queryKey != "" {
		return p.queryKey
	}
	return p.name
}

// toolSpec is the single data-described definition of a tool. The MCP
// registry, the generic dispatcher, and the HTTP shim discovery document are
// all derived from it, so the catalogue cannot drift between entry points.
type toolSpec struct {
	name        string
	description string
	family      upstreamFamily
	// endpoint is the path relative to the family base; "{param}" segments
	// are replaced with the matching path parameter value.
	endpoint string
	params   []toolParam
	// formatAware marks the water services tool, whose "format" parameter
	// switches between JSON and the legacy rdb text response.
	formatAware bool
}

func pagination() []toolParam {
	return []toolParam{
		{name: "limit", description: "Maximum number of results (default: 100)", typ: paramInt, defInt: 100},
		{name: "offset", description: "Starting offset for pagination (default: 0)", typ: paramInt, defInt: 0},
	}
}

var toolCatalogue = []toolSpec{
	{
		name:        "fetch_usgs_data",
		description: "Fetch current water data from USGS for specified sites",
		family:      familyWaterServices,
		formatAware: true,
		params: []toolParam{
			{name: "sites", description: "Comma-separated site numbers (e.g., '01646500' or '01646500,01647000')", typ: paramString, required: true},
			{name: "parameter_codes", queryKey: "parameterCd", description: "Comma-separated parameter codes (e.g., '00060,00065')", typ: paramString},
			{name: "start_date", queryKey: "startDT", description: "Start date in ISO format (YYYY-MM-DD or YYYY-MM-DDTHH:MM)", typ: paramString},
			{name: "end_date", queryKey: "endDT", description: "End date in ISO format", typ: paramString},
			{name: "period", description: "Period code (e.g., 'P7D' for 7 days)", typ: paramString},
			{name: "format", description: "Output format ('json' or 'rdb')", typ: paramString, defString: "json"},
		},
	},
	{
		name:        "get_flooding_reference_points",
		description: "Get currently flooding reference points from USGS Real-Time Flood Impacts API",
		family:      familyFloodImpact,
		endpoint:    "referencepoints/flooding",
	},
	{
		name:        "get_reference_points",
		description: "Get paginated list of reference points from USGS Real-Time Flood Impacts API",
		family:      familyFloodImpact,
		endpoint:    "referencepoints",
		params: []toolParam{
			{name: "page", description: "Page number (default: 1)", typ: paramInt, defInt: 1},
			{name: "limit", description: "Number of results per page (default: 100)", typ: paramInt, defInt: 100},
		},
	},
	{
		name:        "get_reference_point_by_id",
		description: "Get specific reference point by ID from USGS Real-Time Flood Impacts API",
		family:      familyFloodImpact,
		endpoint:    "referencepoints/{reference_point_id}",
		params: []toolParam{
			{name: "reference_point_id", description: "The reference point ID", typ: paramString, required: true, inPath: true},
		},
	},
	{
		name:        "get_reference_points_by_state",
		description: "Get reference points for a specific state from USGS Real-Time Flood Impacts API",
		family:      familyFloodImpact,
		endpoint:    "referencepoints/state/{state_id}",
		params: []toolParam{
			{name: "state_id", description: "State ID (e.g., 'CA', 'TX')", typ: paramString, required: true, inPath: true},
		},
	},
	{
		name:        "get_reference_point_by_nwis_id",
		description: "Get reference point by USGS gage ID from USGS Real-Time Flood Impacts API",
		family:      familyFloodImpact,
		endpoint:    "referencepoints/nwis/{nwis_id}",
		params: []toolParam{
			{name: "nwis_id", description: "USGS National Water Information System site ID", typ: paramString, required: true, inPath: true},
		},
	},
	{
		name:        "get_reference_points_by_nws_id",
		description: "Get reference points by National Weather Service ID from USGS Real-Time Flood Impacts API",
		family:      familyFloodImpact,
		endpoint:    "referencepoints/nws/{nws_id}",
		params: []toolParam{
			{name: "nws_id", description: "National Weather Service location ID", typ: paramString, required: true, inPath: true},
		},
	},
	{
		name:        "get_inactive_reference_points",
		description: "Get inactive reference points from USGS Real-Time Flood Impacts API",
		family:      familyFloodImpact,
		endpoint:    "referencepoints/inactive",
	},
	{
		name:        "get_states",
		description: "Get list of states from USGS Real-Time Flood Impacts API",
		family:      familyFloodImpact,
		endpoint:    "states",
	},
	{
		name:        "get_state_by_id",
		description: "Get specific state information from USGS Real-Time Flood Impacts API",
		family:      familyFloodImpact,
		endpoint:    "states/{state_id}",
		params: []toolParam{
			{name: "state_id", description: "State ID (e.g., 'CA', 'TX')", typ: paramString, required: true, inPath: true},
		},
	},
	{
		name:        "get_counties",
		description: "Get list of counties from USGS Real-Time Flood Impacts API",
		family:      familyFloodImpact,
		endpoint:    "counties",
	},
	{
		name:        "get_counties_by_state",
		description: "Get counties for a specific state from USGS Real-Time Flood Impacts API",
		family:      familyFloodImpact,
		endpoint:    "counties/state/{state_id}",
		params: []toolParam{
			{name: "state_id", description: "State ID (e.g., 'CA', 'TX')", typ: paramString, required: true, inPath: true},
		},
	},
	{
		name:        "get_nws_usgs_crosswalk",
		description: "Get NWS/USGS crosswalk data from USGS Real-Time Flood Impacts API",
		family:      familyFloodImpact,
		endpoint:    "nws_usgs",
	},
	{
		name:        "get_monitoring_locations",
		description: "Get monitoring locations from USGS OGC API",
		family:      familyOGC,
		endpoint:    "collections/monitoring-locations/items",
		params: append(pagination(),
			toolParam{name: "bbox", description: "Bounding box as 'minx,miny,maxx,maxy'", typ: paramString},
			toolParam{name: "agency_code", description: "Filter by agency code (e.g., 'USGS')", typ: paramString},
			toolParam{name: "state_code", description: "Filter by state code (e.g., 'CA')", typ: paramString},
			toolParam{name: "county_code", description: "Filter by county code", typ: paramString},
			toolParam{name: "site_type_code", description: "Filter by site type code", typ: paramString},
			toolParam{name: "monitoring_location_number", description: "Specific monitoring location number", typ: paramString},
		),
	},
	{
		name:        "get_monitoring_location_by_id",
		description: "Get specific monitoring location by ID from USGS OGC API",
		family:      familyOGC,
		endpoint:    "collections/monitoring-locations/items/{location_id}",
		params: []toolParam{
			{name: "location_id", description: "The monitoring location ID", typ: paramString, required: true, inPath: true},
		},
	},
	{
		name:        "get_agency_codes",
		description: "Get agency identification codes from USGS OGC API",
		family:      familyOGC,
		endpoint:    "collections/agency-codes/items",
		params:      pagination(),
	},
	{
		name:        "get_altitude_datums",
		description: "Get vertical datum information from USGS OGC API",
		family:      familyOGC,
		endpoint:    "collections/altitude-datums/items",
		params:      pagination(),
	},
	{
		name:        "get_aquifer_codes",
		description: "Get aquifer identification information from USGS OGC API",
		family:      familyOGC,
		endpoint:    "collections/aquifer-codes/items",
		params:      pagination(),
	},
	{
		name:        "get_aquifer_types",
		description: "Get aquifer type information from USGS OGC API",
		family:      familyOGC,
		endpoint:    "collections/aquifer-types/items",
		params:      pagination(),
	},
	{
		name:        "get_coordinate_accuracy_codes",
		description: "Get coordinate accuracy codes from USGS OGC API",
		family:      familyOGC,
		endpoint:    "collections/coordinate-accuracy-codes/items",
		params:      pagination(),
	},
}

func toolSpecByName(name string) (toolSpec, bool) {
	for _, spec := range toolCatalogue {
		if spec.name == name {
			return spec, true
		}
	}
	return toolSpec{}, false
}

// toolDefinition builds the MCP tool descriptor from the catalogue record. Every
// tool is a read-only GET against a public API.
func (t toolSpec) toolDefinition() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(t.description),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	}
	for _, p := range t.params {
		switch p.typ {
		case paramString:
			propOpts := []mcp.PropertyOption{mcp.Description(p.description)}
			if p.required {
				propOpts = append(propOpts, mcp.Required())
			} else {
				propOpts = append(propOpts, mcp.DefaultString(p.defString))
			}
			opts = append(opts, mcp.WithString(p.name, propOpts...))
		case paramInt:
			opts = append(opts, mcp.WithNumber(p.name,
				mcp.Description(p.description),
				mcp.DefaultNumber(float64(p.defInt)),
			))
		}
	}
	return mcp.NewTool(t.name, opts...)
}

// buildRequest assembles the endpoint path and query values for a call.
// Optional strings left empty never reach the outbound query; integers are
// always sent, including at their defaults. Returns the resolved endpoint,
// the query, and the requested response format.
func (t toolSpec) buildRequest(req mcp.CallToolRequest) (string, url.Values, string, error) {
	endpoint := t.endpoint
	query := url.Values{}
	format := "json"

	for _, p := range t.params {
		switch {
		case p.inPath:
			v, err := req.RequireString(p.name)
			if err != nil {
				return "", nil, "", err
			}
			endpoint = strings.ReplaceAll(endpoint, "{"+p.name+"}", v)
		case p.typ == paramInt:
			query.Set(p.upstreamKey(), strconv.Itoa(req.GetInt(p.name, p.defInt)))
		case p.required:
			v, err := req.RequireString(p.name)
			if err != nil {
				return "", nil, "", err
			}
			query.Set(p.upstreamKey(), v)
		default:
			v := req.GetString(p.name, p.defString)
			if v == "" {
				continue
			}
			query.Set(p.upstreamKey(), v)
			if t.formatAware && p.name == "format" {
				format = v
			}
		}
	}
	return endpoint, query, format, nil
}

// invokeTool is the generic dispatcher shared by every catalogued tool:
// build the request, perform the single upstream GET, return the normalized
// object as JSON text. Errors propagate to the caller as tool errors with no
// local recovery.
func invokeTool(ctx context.Context, client *upstreamClient, spec toolSpec, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	endpoint, query, format, err := spec.buildRequest(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result map[string]any
	if spec.formatAware && format != "json" {
		result, err = client.getText(ctx, spec.family, endpoint, query)
	} else {
		result, err = client.getJSON(ctx, spec.family, endpoint, query)
	}
	if err != nil {
		log.Printf("<tools> %s failed: %v", spec.name, err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal %s result: %w", spec.name, err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// registerTools adds every catalogued tool to the MCP server, all backed by
// the same dispatcher.
func registerTools(s *server.MCPServer, client *upstreamClient) {
	for _, spec := range toolCatalogue {
		spec := spec
		s.AddTool(spec.toolDefinition(), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return invokeTool(ctx, client, spec, req)
		})
	}
}
