package geo

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/go-spatial/proj"
)

// TargetCRS is the reference every boundary is delivered in
const TargetCRS = "EPSG:4326"

// Projection converts flat XY pairs between a source CRS and lon/lat degrees
type Projection interface {
	Name() string
	Inverse(xy []float64) ([]float64, error)
	Forward(lonlat []float64) ([]float64, error)
}

// Geographic is a lon/lat CRS. Datum shifts between WGS84, MAGNA-SIRGAS and
// SIRGAS are below display precision and are ignored.
type Geographic struct {
	Label string
}

func (g Geographic) Name() string { return g.Label }

func (g Geographic) Inverse(xy []float64) ([]float64, error) { return xy, nil }

func (g Geographic) Forward(lonlat []float64) ([]float64, error) { return lonlat, nil }

// Projected delegates to a proj definition registered under Code
type Projected struct {
	Label string
	Code  proj.EPSGCode
	// UnitToMetre scales source coordinates; 0 means metres
	UnitToMetre float64
}

func (p Projected) Name() string { return p.Label }

func (p Projected) unit() float64 {
	if p.UnitToMetre == 0 {
		return 1
	}
	return p.UnitToMetre
}

// Inverse converts projected pairs to lon/lat
func (p Projected) Inverse(xy []float64) ([]float64, error) {
	in := xy
	if u := p.unit(); u != 1 {
		in = make([]float64, len(xy))
		for i, v := range xy {
			in[i] = v * u
		}
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	return proj.Inverse(p.Code, in)
}

// Forward converts lon/lat pairs to projected coordinates
func (p Projected) Forward(lonlat []float64) ([]float64, error) {
	registry.mu.Lock()
	out, err := proj.Convert(p.Code, lonlat)
	registry.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if u := p.unit(); u != 1 {
		for i := range out {
			out[i] /= u
		}
	}
	return out, nil
}

// definitions not shipped with proj, keyed by EPSG code
var definitions = map[int]string{
	3114: colombiaZone(-80.07750791666666),
	3115: colombiaZone(-77.07750791666666),
	3116: colombiaZone(-74.07750791666666),
	3117: colombiaZone(-71.07750791666666),
	3118: colombiaZone(-68.07750791666666),
	9377: "+proj=etmerc +lat_0=4 +lon_0=-73 +k=0.9992 +x_0=5000000 +y_0=2000000 +ellps=GRS80",
}

// MAGNA-SIRGAS Colombia zones share everything but the central meridian
func colombiaZone(centralMeridian float64) string {
	return fmt.Sprintf("+proj=etmerc +lat_0=4.596200416666666 +lon_0=%s +k=1 +x_0=1000000 +y_0=1000000 +ellps=GRS80",
		strconv.FormatFloat(centralMeridian, 'f', -1, 64))
}

// customCodeBase starts the code range used for definitions read from .prj files
const customCodeBase = 990000

// registry serializes access to proj's process-wide definition table
var registry = struct {
	mu    sync.Mutex
	byDef map[string]proj.EPSGCode
	next  proj.EPSGCode
}{
	byDef: map[string]proj.EPSGCode{},
	next:  customCodeBase,
}

// register makes def available under code, or under a fresh code when code
// is 0. Registering the same definition twice returns the first code.
func register(code proj.EPSGCode, def string) proj.EPSGCode {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if existing, ok := registry.byDef[def]; ok {
		return existing
	}
	if code == 0 {
		code = registry.next
		registry.next++
	}
	proj.CustomProjection(code, def)
	registry.byDef[def] = code
	return code
}

var epsgCodePattern = regexp.MustCompile(`(?i)EPSG:{1,2}(?:[0-9.]*:)?(\d+)$`)

// ParseEPSG extracts the numeric code from "EPSG:3116", "3116" or an OGC URN
func ParseEPSG(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if _, err := strconv.Atoi(s); err == nil {
		return s, true
	}
	if strings.Contains(strings.ToUpper(s), "CRS84") {
		return "4326", true
	}
	if m := epsgCodePattern.FindStringSubmatch(s); m != nil {
		return m[1], true
	}
	return "", false
}

// ForEPSG returns the projection for a supported EPSG code
func ForEPSG(s string) (Projection, error) {
	code, ok := ParseEPSG(s)
	if !ok {
		return nil, fmt.Errorf("not an EPSG identifier: %q", s)
	}
	n, _ := strconv.Atoi(code)
	label := "EPSG:" + code

	switch n {
	case 4326, 4686, 4170, 4674:
		return Geographic{Label: label}, nil
	case 3857, 900913, 102100, 102113:
		return Projected{Label: "EPSG:3857", Code: proj.EPSG3857}, nil
	}
	if def, ok := definitions[n]; ok {
		return Projected{Label: label, Code: register(proj.EPSGCode(n), def)}, nil
	}

	switch {
	case n >= 32601 && n <= 32660:
		def := fmt.Sprintf("+proj=utm +zone=%d +datum=WGS84", n-32600)
		return Projected{Label: label, Code: register(proj.EPSGCode(n), def)}, nil
	case n >= 32701 && n <= 32760:
		def := fmt.Sprintf("+proj=utm +zone=%d +south +datum=WGS84", n-32700)
		return Projected{Label: label, Code: register(proj.EPSGCode(n), def)}, nil
	}
	return nil, fmt.Errorf("unsupported CRS EPSG:%s", code)
}

// ParsePRJ interprets an ESRI/OGC WKT1 coordinate system definition
func ParsePRJ(wkt string) (Projection, error) {
	root, err := parseWKT(wkt)
	if err != nil {
		return nil, err
	}

	if auth := root.child("AUTHORITY"); auth != nil && len(auth.values) == 2 && strings.EqualFold(auth.values[0], "EPSG") {
		if p, err := ForEPSG(auth.values[1]); err == nil {
			return p, nil
		}
	}

	switch root.keyword {
	case "GEOGCS":
		return Geographic{Label: TargetCRS}, nil
	case "PROJCS":
		return projectedFromWKT(root)
	default:
		return nil, fmt.Errorf("unsupported coordinate system %s", root.keyword)
	}
}

// projectedFromWKT translates a WKT PROJCS into a proj definition
func projectedFromWKT(root *wktNode) (Projection, error) {
	method := root.child("PROJECTION")
	if method == nil || len(method.values) == 0 {
		return nil, fmt.Errorf("PROJCS without PROJECTION")
	}

	switch strings.ToLower(strings.ReplaceAll(method.values[0], " ", "_")) {
	case "mercator_auxiliary_sphere", "popular_visualisation_pseudo_mercator":
		return Projected{Label: "EPSG:3857", Code: proj.EPSG3857}, nil
	case "transverse_mercator", "gauss_kruger":
	default:
		return nil, fmt.Errorf("unsupported projection %s", method.values[0])
	}

	params := map[string]float64{"scale_factor": 1}
	for _, p := range root.children {
		if p.keyword != "PARAMETER" || len(p.values) != 2 {
			continue
		}
		v, err := strconv.ParseFloat(p.values[1], 64)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", p.values[0], err)
		}
		params[strings.ToLower(p.values[0])] = v
	}

	a, b := 6378137.0, 6356752.314245179 // WGS84
	if sph := root.find("SPHEROID"); sph != nil && len(sph.values) >= 3 {
		semiMajor, errA := strconv.ParseFloat(sph.values[1], 64)
		invF, errF := strconv.ParseFloat(sph.values[2], 64)
		if errA != nil || errF != nil || semiMajor <= 0 {
			return nil, fmt.Errorf("malformed SPHEROID")
		}
		a, b = semiMajor, semiMajor
		if invF != 0 {
			b = semiMajor * (1 - 1/invF)
		}
	}

	unit := 1.0
	if u := root.child("UNIT"); u != nil && len(u.values) >= 2 {
		if f, err := strconv.ParseFloat(u.values[1], 64); err == nil && f > 0 {
			unit = f
		}
	}

	def := fmt.Sprintf("+proj=etmerc +lat_0=%s +lon_0=%s +k=%s +x_0=%s +y_0=%s +a=%s +b=%s",
		ftoa(params["latitude_of_origin"]),
		ftoa(params["central_meridian"]),
		ftoa(params["scale_factor"]),
		ftoa(params["false_easting"]),
		ftoa(params["false_northing"]),
		ftoa(a), ftoa(b))

	return Projected{Label: root.name(), Code: register(0, def), UnitToMetre: unit}, nil
}

func ftoa(f float64) string {
	if math.Trunc(f) == f && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// wktNode is one KEYWORD[value, ..., CHILD[...]] element
type wktNode struct {
	keyword  string
	values   []string
	children []*wktNode
}

func (n *wktNode) name() string {
	if len(n.values) > 0 {
		return n.values[0]
	}
	return n.keyword
}

// child returns the first direct child with the keyword
func (n *wktNode) child(keyword string) *wktNode {
	for _, c := range n.children {
		if c.keyword == keyword {
			return c
		}
	}
	return nil
}

// find searches depth-first
func (n *wktNode) find(keyword string) *wktNode {
	for _, c := range n.children {
		if c.keyword == keyword {
			return c
		}
		if f := c.find(keyword); f != nil {
			return f
		}
	}
	return nil
}

type wktParser struct {
	s   string
	pos int
}

func parseWKT(s string) (*wktNode, error) {
	p := &wktParser{s: strings.TrimSpace(s)}
	node, err := p.node()
	if err != nil {
		return nil, fmt.Errorf("malformed WKT: %w", err)
	}
	return node, nil
}

func (p *wktParser) skipSpace() {
	for p.pos < len(p.s) && strings.ContainsRune(" \t\r\n", rune(p.s[p.pos])) {
		p.pos++
	}
}

func (p *wktParser) node() (*wktNode, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.s) && isWKTLetter(p.s[p.pos]) {
		p.pos++
	}
	if start == p.pos {
		return nil, fmt.Errorf("expected keyword at offset %d", p.pos)
	}
	n := &wktNode{keyword: strings.ToUpper(p.s[start:p.pos])}

	p.skipSpace()
	if p.pos >= len(p.s) || (p.s[p.pos] != '[' && p.s[p.pos] != '(') {
		return n, nil
	}
	closing := byte(']')
	if p.s[p.pos] == '(' {
		closing = ')'
	}
	p.pos++

	for {
		p.skipSpace()
		if p.pos >= len(p.s) {
			return nil, fmt.Errorf("unterminated %s", n.keyword)
		}
		switch c := p.s[p.pos]; {
		case c == closing:
			p.pos++
			return n, nil
		case c == ',':
			p.pos++
		case c == '"':
			end := strings.IndexByte(p.s[p.pos+1:], '"')
			if end < 0 {
				return nil, fmt.Errorf("unterminated string at offset %d", p.pos)
			}
			n.values = append(n.values, p.s[p.pos+1:p.pos+1+end])
			p.pos += end + 2
		case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
			start := p.pos
			for p.pos < len(p.s) && strings.IndexByte("+-.eE0123456789", p.s[p.pos]) >= 0 {
				p.pos++
			}
			n.values = append(n.values, p.s[start:p.pos])
		case isWKTLetter(c):
			child, err := p.node()
			if err != nil {
				return nil, err
			}
			// bare enum values such as AXIS["X",EAST] carry no brackets
			if len(child.values) == 0 && len(child.children) == 0 && p.lastWasBare() {
				n.values = append(n.values, child.keyword)
				continue
			}
			n.children = append(n.children, child)
		default:
			return nil, fmt.Errorf("unexpected %q at offset %d", c, p.pos)
		}
	}
}

func (p *wktParser) lastWasBare() bool {
	return p.pos > 0 && p.s[p.pos-1] != ']' && p.s[p.pos-1] != ')'
}

func isWKTLetter(c byte) bool {
	return c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}
