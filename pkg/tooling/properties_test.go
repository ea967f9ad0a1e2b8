package tooling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/cutplan/pkg/config"
	"github.com/chazu/cutplan/pkg/props"
	"github.com/chazu/cutplan/pkg/units"
)

func TestPropertiesDependOnType(t *testing.T) {
	cfg := config.NewMemory()

	endMill := newTool(t, 1, TypeEndMill, 6).Properties(cfg, units.Millimetres)
	assert.NotNil(t, props.Find(endMill, "flat radius"))
	assert.Nil(t, props.Find(endMill, "probe offset x"))
	assert.Nil(t, props.Find(endMill, "front angle"))

	probe := newTool(t, 2, TypeTouchProbe, 2).Properties(cfg, units.Millimetres)
	assert.NotNil(t, props.Find(probe, "probe offset x"))
	assert.Nil(t, props.Find(probe, "flat radius"))

	turning := newTool(t, 3, TypeTurningTool, 2).Properties(cfg, units.Millimetres)
	assert.NotNil(t, props.Find(turning, "orientation"))
}

func TestPropertySetterPersistsDefault(t *testing.T) {
	cfg := config.NewMemory()
	tool := newTool(t, 1, TypeEndMill, 6)

	list := tool.Properties(cfg, units.Inches)
	dia := props.Find(list, "diameter")
	require.NotNil(t, dia)
	assert.Equal(t, props.KindLength, dia.Kind)
	assert.InDelta(t, 6/25.4, dia.Value, 1e-12)

	require.NoError(t, dia.Set(0.5))
	assert.InDelta(t, 12.7, tool.Params().Diameter, 1e-9)
	assert.Equal(t, "1/2 inch HSS End Mill", tool.Title())

	// Tools created later start from the edited value.
	assert.InDelta(t, 12.7, DefaultParams(cfg).Diameter, 1e-9)
	assert.Equal(t, TypeEndMill, DefaultParams(cfg).Type)
}

func TestTypePropertyResetsGeometry(t *testing.T) {
	cfg := config.NewMemory()
	tool := newTool(t, 1, TypeEndMill, 10)

	typ := props.Find(tool.Properties(cfg, units.Millimetres), "type")
	require.NotNil(t, typ)
	require.NoError(t, typ.Set(float64(TypeBallEndMill)))

	p := tool.Params()
	assert.Equal(t, TypeBallEndMill, p.Type)
	assert.InDelta(t, 5, p.CornerRadius, 1e-9)
	assert.Equal(t, "10 mm HSS Ball End Mill", tool.Title())

	assert.Error(t, typ.Set(float64(TypeUndefined)))
}
