package domain

// Tags is the key/value dictionary attached to a map feature.
type Tags map[string]string

// Name returns the feature name, or "" if it has none.
func (t Tags) Name() string {
	if n := t["name"]; n != "" {
		return n
	}
	return t["brand"]
}

// WayFeature is a linear road feature returned by the road-attribute service.
type WayFeature struct {
	ID   string `json:"id"`
	Tags Tags   `json:"tags"`
}

// PointFeature is a point returned by the point-feature service.
// ID is stable across queries ("node/123", "way/456").
type PointFeature struct {
	ID         string     `json:"id"`
	Coordinate Coordinate `json:"coordinate"`
	Tags       Tags       `json:"tags"`
}

// Matcher is the value side of a TagRule: either Exact or Wildcard.
type Matcher interface {
	matches(value string) bool
}

// Exact matches a tag whose value equals the string.
type Exact string

func (e Exact) matches(value string) bool { return value == string(e) }

// Wildcard matches any value of the tag key, as long as the key is present.
type Wildcard struct{}

func (Wildcard) matches(string) bool { return true }

// TagRule is a single category predicate: tag key plus value matcher.
type TagRule struct {
	Key     string  `json:"key"`
	Matcher Matcher `json:"-"`
}

// Matches evaluates the rule against a tag dictionary.
func (r TagRule) Matches(tags Tags) bool {
	v, ok := tags[r.Key]
	if !ok || r.Matcher == nil {
		return false
	}
	return r.Matcher.matches(v)
}

// String renders the rule as key=value or key=*.
func (r TagRule) String() string {
	switch m := r.Matcher.(type) {
	case Exact:
		return r.Key + "=" + string(m)
	case Wildcard:
		return r.Key + "=*"
	default:
		return r.Key
	}
}

// MatchesAny reports whether any rule matches tags.
func MatchesAny(rules []TagRule, tags Tags) bool {
	for _, r := range rules {
		if r.Matches(tags) {
			return true
		}
	}
	return false
}
