package document

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/cutplan/pkg/config"
	"github.com/chazu/cutplan/pkg/job"
	"github.com/chazu/cutplan/pkg/units"
)

const script = `
(units :inch)
(tool :number 1 :type :end-mill :diameter 0.25 :material :carbide)
(tool :number 2 :type :chamfer :diameter 0.5 :title "Deburr")
(sketch :id 1 :min (vec3 0 0 0) :max (vec3 2 2 0.5))
(sketch :id 2 :min (vec3 0 0 -0.25) :max (vec3 1 1 0))
(operation :kind :pocket :id 1 :tool 1 :sketches (list 1 2) :comment "rough")
(fixture 3)
(operation :kind :chamfer :id 2 :tool 2 :sketches (list 1))
(operation :kind :probe :id 3 :active false)
`

func newSession() *job.Session {
	return job.NewSession(config.NewMemory(), nil, nil)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	src := newSession()
	res := src.Run(script, job.Options{Title: "plate"})
	require.True(t, res.OK(), "errors: %v", res.Errors)

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, src))
	assert.True(t, strings.HasPrefix(buf.String(), "<?xml"))
	assert.Contains(t, buf.String(), `<CNCDocument units="inch">`)

	dst := newSession()
	diags, err := Load(&buf, dst)
	require.NoError(t, err)
	assert.Empty(t, diags)

	assert.Equal(t, units.Inches, dst.Units())
	assert.Equal(t, src.Tools().Len(), dst.Tools().Len())
	assert.Equal(t, src.Sketches().IDs(), dst.Sketches().IDs())

	deburr, ok := dst.Tools().Find(2)
	require.True(t, ok)
	assert.Equal(t, "Deburr", deburr.Title())

	require.Len(t, dst.Operations(), 3)
	for i, op := range src.Operations() {
		got := dst.Operations()[i]
		assert.Equal(t, op.ID, got.ID)
		assert.Equal(t, op.Kind, got.Kind)
		assert.Equal(t, op.Active, got.Active)
		assert.Equal(t, op.Sketches, got.Sketches)
		assert.Equal(t, op.Speed, got.Speed)
		assert.Equal(t, op.Depth, got.Depth)
		assert.Equal(t, src.Fixture(op.ID), dst.Fixture(op.ID))
	}
	assert.Equal(t, 3, dst.Fixture(2))

	assert.Equal(t, src.Program("plate").Text(), dst.Program("plate").Text())
}

func TestLoadReplacesSession(t *testing.T) {
	src := newSession()
	require.True(t, src.Run(`(tool :number 5 :type :drill)`, job.Options{}).OK())
	var buf bytes.Buffer
	require.NoError(t, Save(&buf, src))

	dst := newSession()
	require.True(t, dst.Run(script, job.Options{}).OK())
	_, err := Load(&buf, dst)
	require.NoError(t, err)

	assert.Equal(t, 1, dst.Tools().Len())
	assert.Empty(t, dst.Operations())
	assert.Equal(t, units.Millimetres, dst.Units())
}

func TestLoadReportsDuplicates(t *testing.T) {
	doc := `<CNCDocument units="mm">
  <Tools>
    <CuttingTool title="a" tool_number="1"><params type="0" diameter="3"/></CuttingTool>
    <CuttingTool title="b" tool_number="1"><params type="2" diameter="6"/></CuttingTool>
  </Tools>
  <Operations>
    <Operation kind="profile" id="1" active="1" tool_number="1"></Operation>
    <Operation kind="pocket" id="1" active="1" tool_number="1"></Operation>
  </Operations>
  <Unknown><nested/></Unknown>
</CNCDocument>`

	s := newSession()
	diags, err := Load(strings.NewReader(doc), s)
	require.NoError(t, err)
	require.Len(t, diags, 2)
	assert.Contains(t, diags[0], "tool 1")
	assert.Contains(t, diags[1], "operation 1")
	assert.Equal(t, 1, s.Tools().Len())
	require.Len(t, s.Operations(), 1)
	assert.Equal(t, "profile", s.Operations()[0].Kind.String())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(strings.NewReader(`<Other/>`), newSession())
	assert.ErrorIs(t, err, ErrNotDocument)

	_, err = Load(strings.NewReader(``), newSession())
	assert.ErrorIs(t, err, ErrNotDocument)

	_, err = Load(strings.NewReader(`<CNCDocument><Tools>`), newSession())
	assert.Error(t, err)
}

func TestFiles(t *testing.T) {
	src := newSession()
	require.True(t, src.Run(script, job.Options{}).OK())

	path := filepath.Join(t.TempDir(), "plate.cnc.xml")
	require.NoError(t, SaveFile(path, src))

	dst := newSession()
	_, err := LoadFile(path, dst)
	require.NoError(t, err)
	assert.Len(t, dst.Operations(), 3)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.xml"), dst)
	assert.Error(t, err)
}
