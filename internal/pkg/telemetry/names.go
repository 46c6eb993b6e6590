package telemetry

// Span names for calls to external collaborators.
const (
	SpanOverpassWays     = "overpass.ways_in_bounds"
	SpanOverpassFeatures = "overpass.features_in_bounds"
	SpanRoutingRealize   = "routing.realize"
	SpanPostGISFeatures  = "postgis.features_in_bounds"
	SpanSurfaceAnalyze   = "surface.analyze"
	SpanPOISearch        = "poi.search"
	SpanRoundTripGen     = "roundtrip.generate"
)
