package tessellate

import (
	"fmt"

	"github.com/notargets/fegraphics/field"
	"github.com/notargets/fegraphics/graphics"
	"github.com/notargets/fegraphics/mesh"
	"github.com/notargets/fegraphics/types"
	"github.com/notargets/fegraphics/utils"
)

// checkCoordinates validates the coordinate field common to every primitive
func checkCoordinates(coords field.Field) (err error) {
	if coords == nil {
		return fmt.Errorf("no coordinate field")
	}
	if nc := coords.NumberOfComponents(); nc < 1 || nc > 3 {
		return fmt.Errorf("coordinate field %s has %d components, need 1 to 3", coords.Name(), nc)
	}
	return
}

func graphicsName(elem mesh.Element) (types.GraphicsName, error) {
	return types.NewGraphicsName(elem.Identifier())
}

// Polyline samples segments+1 evenly spaced points along a 1D element
func Polyline(elem mesh.Element, coords, data field.Field, segments int,
	time float64, top mesh.Element) (pl *graphics.Polyline, err error) {
	defer field.ClearAll(coords, data)
	if elem == nil || elem.Dimension() != 1 {
		err = fmt.Errorf("polyline needs a 1D element")
		return
	}
	if segments < 1 {
		err = fmt.Errorf("polyline needs at least one segment, have %d", segments)
		return
	}
	if err = checkCoordinates(coords); err != nil {
		return
	}
	var name types.GraphicsName
	if name, err = graphicsName(elem); err != nil {
		return
	}
	p := &graphics.Polyline{GraphicsName: name}
	if data != nil {
		p.DataComponents = data.NumberOfComponents()
	}
	for i := 0; i <= segments; i++ {
		xi := types.NewXi(float64(i) / float64(segments))
		var x []float64
		if x, err = coords.Evaluate(elem, xi, time, top); err != nil {
			return
		}
		p.Points = append(p.Points, utils.Vec(x...))
		if data != nil {
			var d []float64
			if d, err = data.Evaluate(elem, xi, time, top); err != nil {
				return
			}
			p.Data = append(p.Data, d...)
		}
	}
	pl = p
	return
}
