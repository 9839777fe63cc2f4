package adapter

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/planar-dev/planar/pkg/geom"
	"github.com/planar-dev/planar/pkg/model"
)

// IFCLiteAdapter reads the IFC-lite interchange format: a JSON document
// when the payload parses as one, else a simple KEY=value line format.
// Every element maps to a Solid entity for now; the original IFC type
// string is preserved in entity meta under "ifc_type".
type IFCLiteAdapter struct{}

func (*IFCLiteAdapter) Format() string { return model.FormatIFCLite }

type ifcDocument struct {
	Units    string       `json:"units"`
	Elements []ifcElement `json:"elements"`
	Layers   []ifcLayer   `json:"layers"`
}

type ifcElement struct {
	ID        string        `json:"id"`
	Type      string        `json:"type"`
	Layer     string        `json:"layer"`
	Geometry  ifcGeometry   `json:"geometry"`
	Placement *ifcPlacement `json:"placement"`
}

type ifcGeometry struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Z      float64 `json:"z"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Length float64 `json:"length"`
}

type ifcPlacement struct {
	Location ifcPoint `json:"location"`
}

type ifcPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type ifcLayer struct {
	Name string `json:"name"`
}

func (a *IFCLiteAdapter) Adapt(data []byte, unitHint *model.UnitKind, tolerance float64) (*model.CadModel, error) {
	var doc ifcDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		// Not JSON: fall back to the KEY=value line format.
		fallback, ferr := scanIFCLines(string(data))
		if ferr != nil {
			return nil, &ParseError{Format: model.FormatIFCLite, Err: ferr}
		}
		doc = fallback
	}

	var declared *model.UnitKind
	if doc.Units != "" {
		if kind, ok := model.ParseUnit(doc.Units); ok {
			declared = &kind
		}
	}
	units, err := resolveUnits(declared, unitHint)
	if err != nil {
		return nil, err
	}

	m := model.NewCadModel(model.FormatIFCLite, units, tolerance)
	m.SourceSHA256 = sourceSHA256(data)
	m.AdapterVersion = Version

	for _, l := range doc.Layers {
		if l.Name != "" {
			m.AddLayer(model.Layer{Name: l.Name, Visible: true})
		}
	}
	for i, el := range doc.Elements {
		if el.Type == "" {
			return nil, &ParseError{
				Format: model.FormatIFCLite,
				Err:    fmt.Errorf("element %d has no type", i),
			}
		}
		origin := geom.V(el.Geometry.X, el.Geometry.Y, el.Geometry.Z)
		if el.Placement != nil {
			// Translation only; rotation is not supported.
			origin = origin.Add(geom.V(el.Placement.Location.X, el.Placement.Location.Y, el.Placement.Location.Z))
		}
		g := model.SolidGeometry{
			Origin: origin,
			Width:  el.Geometry.Width,
			Height: el.Geometry.Height,
			Length: el.Geometry.Length,
		}
		meta := map[string]string{"ifc_type": el.Type}
		m.Entities = append(m.Entities, model.NewEntity(model.Solid, el.Layer, g, el.ID, meta))
		if el.Layer != "" {
			m.AddLayer(model.Layer{Name: el.Layer, Visible: true})
		}
	}

	m.RecomputeBBox()
	m.RecomputeModelHash()
	return m, nil
}

// scanIFCLines reads the KEY=value fallback form. Each ELEMENT_TYPE
// line opens a new element; UNIT and LAYER set document/element state;
// X/Y/Z and WIDTH/HEIGHT/LENGTH fill the current element's geometry.
func scanIFCLines(text string) (ifcDocument, error) {
	var doc ifcDocument
	var current *ifcElement

	flush := func() {
		if current != nil {
			doc.Elements = append(doc.Elements, *current)
		}
		current = nil
	}

	for n, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.ToUpper(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		setCoord := func(dst *float64) error {
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return fmt.Errorf("line %d: %s: %w", n+1, key, err)
			}
			*dst = f
			return nil
		}

		switch key {
		case "UNIT":
			doc.Units = value
		case "ELEMENT_TYPE":
			flush()
			current = &ifcElement{Type: value}
		case "LAYER":
			if current != nil {
				current.Layer = value
			} else {
				doc.Layers = append(doc.Layers, ifcLayer{Name: value})
			}
		case "X", "Y", "Z", "WIDTH", "HEIGHT", "LENGTH":
			if current == nil {
				continue
			}
			var dst *float64
			switch key {
			case "X":
				dst = &current.Geometry.X
			case "Y":
				dst = &current.Geometry.Y
			case "Z":
				dst = &current.Geometry.Z
			case "WIDTH":
				dst = &current.Geometry.Width
			case "HEIGHT":
				dst = &current.Geometry.Height
			case "LENGTH":
				dst = &current.Geometry.Length
			}
			if err := setCoord(dst); err != nil {
				return ifcDocument{}, err
			}
		}
	}
	flush()
	return doc, nil
}
