package adapter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/planar-dev/planar/pkg/geom"
	"github.com/planar-dev/planar/pkg/model"
)

// DXFAdapter reads the narrow DXF subset this pipeline needs: a
// line-oriented scan over group-code pairs covering the HEADER, TABLES
// and ENTITIES sections. It is deliberately not a general DXF reader.
type DXFAdapter struct{}

func (*DXFAdapter) Format() string { return model.FormatDXF }

// dxfUnitCodes is the fixed $UNITS code table. Code 0 means "no units"
// and is treated as undeclared.
var dxfUnitCodes = map[int]model.UnitKind{
	1: model.Inch,
	2: model.Foot,
	4: model.Millimeter,
	5: model.Centimeter,
	6: model.Meter,
}

// dxfEntityTypes maps recognized DXF entity names to EntityType. The
// mapping is coarse on purpose: no geometric disambiguation happens
// here.
var dxfEntityTypes = map[string]model.EntityType{
	"LINE":       model.Line,
	"CIRCLE":     model.Circle,
	"ARC":        model.Arc,
	"LWPOLYLINE": model.Polyline,
	"POLYLINE":   model.Polyline,
	"SOLID":      model.Solid,
}

// groupPair is one (code, value) pair from the DXF stream.
type groupPair struct {
	code  int
	value string
	line  int
}

// dxfRecord accumulates the groups of one entity before conversion.
type dxfRecord struct {
	dxfType    string
	layer      string
	handle     string
	points     []geom.Vec3 // group 10/20/30 triples, in order
	end        geom.Vec3   // group 11/21/31
	radius     float64
	startAngle float64
	endAngle   float64
	flags      int
	// inVertices is set once a POLYLINE's VERTEX records start: from
	// then on only coordinate groups are absorbed, so a vertex's own
	// 8/70 groups cannot clobber the parent's layer or closed flag.
	inVertices bool
}

func (a *DXFAdapter) Adapt(data []byte, unitHint *model.UnitKind, tolerance float64) (*model.CadModel, error) {
	pairs, err := scanGroupPairs(string(data))
	if err != nil {
		return nil, &ParseError{Format: model.FormatDXF, Err: err}
	}

	var (
		section      string
		headerVar    string
		declared     *model.UnitKind
		layers       []model.Layer
		currentLayer *model.Layer
		records      []dxfRecord
		current      *dxfRecord
	)

	flushLayer := func() {
		if currentLayer != nil && currentLayer.Name != "" {
			layers = append(layers, *currentLayer)
		}
		currentLayer = nil
	}
	flushEntity := func() {
		if current != nil {
			records = append(records, *current)
		}
		current = nil
	}

	for _, p := range pairs {
		if p.code == 0 {
			switch p.value {
			case "SECTION":
				section = ""
				continue
			case "ENDSEC":
				flushLayer()
				flushEntity()
				section = ""
				continue
			}
		}
		if p.code == 2 && section == "" {
			section = p.value
			continue
		}

		switch section {
		case "HEADER":
			switch p.code {
			case 9:
				headerVar = p.value
			case 70:
				if headerVar == "$UNITS" {
					if kind, ok := dxfUnitCodes[atoiOrZero(p.value)]; ok {
						k := kind
						declared = &k
					}
				}
			}

		case "TABLES":
			switch p.code {
			case 0:
				flushLayer()
				if p.value == "LAYER" {
					currentLayer = &model.Layer{Visible: true}
				}
			case 2:
				if currentLayer != nil {
					currentLayer.Name = p.value
				}
			case 62:
				if currentLayer != nil {
					currentLayer.Color = p.value
				}
			}

		case "ENTITIES":
			if p.code == 0 {
				switch {
				case p.value == "VERTEX" && current != nil && current.dxfType == "POLYLINE":
					// vertex coordinates accumulate onto the open polyline
					current.inVertices = true
					continue
				case p.value == "SEQEND":
					flushEntity()
					continue
				default:
					flushEntity()
					if _, ok := dxfEntityTypes[p.value]; ok {
						current = &dxfRecord{dxfType: p.value, layer: "0"}
					}
					continue
				}
			}
			if current == nil {
				continue
			}
			if err := current.absorb(p); err != nil {
				return nil, &ParseError{Format: model.FormatDXF, Err: err}
			}
		}
	}
	flushLayer()
	flushEntity()

	units, err := resolveUnits(declared, unitHint)
	if err != nil {
		return nil, err
	}

	m := model.NewCadModel(model.FormatDXF, units, tolerance)
	m.SourceSHA256 = sourceSHA256(data)
	m.AdapterVersion = Version
	for _, l := range layers {
		m.AddLayer(l)
	}
	for _, r := range records {
		e, err := r.toEntity()
		if err != nil {
			return nil, &ParseError{Format: model.FormatDXF, Err: err}
		}
		m.Entities = append(m.Entities, e)
		m.AddLayer(model.Layer{Name: e.Layer, Visible: true})
	}
	m.RecomputeBBox()
	m.RecomputeModelHash()
	return m, nil
}

// absorb folds one group pair into the record.
func (r *dxfRecord) absorb(p groupPair) error {
	if r.inVertices && p.code != 10 && p.code != 20 && p.code != 30 {
		return nil
	}
	switch p.code {
	case 8:
		r.layer = p.value
	case 5:
		r.handle = p.value
	case 10:
		r.points = append(r.points, geom.Vec3{})
		return r.setCoord(p, func(v *geom.Vec3, f float64) { v.X = f })
	case 20:
		return r.setCoord(p, func(v *geom.Vec3, f float64) { v.Y = f })
	case 30:
		return r.setCoord(p, func(v *geom.Vec3, f float64) { v.Z = f })
	case 11:
		return r.setFloat(p, &r.end.X)
	case 21:
		return r.setFloat(p, &r.end.Y)
	case 31:
		return r.setFloat(p, &r.end.Z)
	case 40:
		return r.setFloat(p, &r.radius)
	case 50:
		return r.setFloat(p, &r.startAngle)
	case 51:
		return r.setFloat(p, &r.endAngle)
	case 70:
		r.flags = atoiOrZero(p.value)
	}
	return nil
}

func (r *dxfRecord) setCoord(p groupPair, assign func(*geom.Vec3, float64)) error {
	if len(r.points) == 0 {
		r.points = append(r.points, geom.Vec3{})
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(p.value), 64)
	if err != nil {
		return fmt.Errorf("line %d: group %d: %w", p.line, p.code, err)
	}
	assign(&r.points[len(r.points)-1], f)
	return nil
}

func (r *dxfRecord) setFloat(p groupPair, dst *float64) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(p.value), 64)
	if err != nil {
		return fmt.Errorf("line %d: group %d: %w", p.line, p.code, err)
	}
	*dst = f
	return nil
}

// toEntity converts an accumulated record into a typed Entity.
func (r *dxfRecord) toEntity() (model.Entity, error) {
	kind := dxfEntityTypes[r.dxfType]
	pos := geom.Vec3{}
	if len(r.points) > 0 {
		pos = r.points[0]
	}

	var g model.Geometry
	switch kind {
	case model.Line:
		g = model.LineGeometry{Start: pos, End: r.end}
	case model.Circle:
		g = model.CircleGeometry{Center: pos, Radius: r.radius}
	case model.Arc:
		g = model.ArcGeometry{
			Center:     pos,
			Radius:     r.radius,
			StartAngle: r.startAngle,
			EndAngle:   r.endAngle,
		}
	case model.Polyline:
		g = model.PolylineGeometry{
			Vertices: r.points,
			Closed:   r.flags&1 != 0,
		}
	case model.Solid:
		g = model.SolidGeometry{Origin: pos}
	default:
		return model.Entity{}, fmt.Errorf("unhandled dxf type %q", r.dxfType)
	}

	return model.NewEntity(kind, r.layer, g, r.handle, nil), nil
}

// scanGroupPairs splits the DXF text into (code, value) pairs. Codes
// occupy every odd line, values every even line.
func scanGroupPairs(text string) ([]groupPair, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	var pairs []groupPair
	for i := 0; i+1 < len(lines); i += 2 {
		codeStr := strings.TrimSpace(lines[i])
		if codeStr == "" {
			// tolerate a trailing blank line between records
			i--
			continue
		}
		code, err := strconv.Atoi(codeStr)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad group code %q", i+1, codeStr)
		}
		pairs = append(pairs, groupPair{
			code:  code,
			value: strings.TrimSpace(lines[i+1]),
			line:  i + 1,
		})
	}
	return pairs, nil
}

func atoiOrZero(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}
