package segregated

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/notargets/insfv/fields"
	"github.com/notargets/insfv/insfv"
	"github.com/notargets/insfv/mesh"
	"github.com/notargets/insfv/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestCoupling(t *testing.T) {
	m, err := mesh.NewChannelMesh(3, 2, 3, 2)
	require.NoError(t, err)
	full := func() *fields.Storage {
		st := fields.NewStorage(m, nil)
		for i := 0; i < 2; i++ {
			st.MustAdd(StarNames[i], fields.KindVelocity)
			st.MustAdd(AdvNames[i], fields.KindVelocity)
			st.MustAdd(AinvNames[i], fields.KindAuxiliary)
			st.MustAdd(HuNames[i], fields.KindAuxiliary)
			st.MustAdd(RHSNames[i], fields.KindAuxiliary)
		}
		st.MustAdd(Pressure, fields.KindPressure)
		st.MustAdd(PressureOld, fields.KindAuxiliary)
		return st
	}
	{ // Every exchanged field is copied by value
		mom, pres := full(), full()
		c, err := NewCoupling(2, mom, pres)
		require.NoError(t, err)
		src, _ := mom.Get(HuY)
		src.Fill(2.5)
		require.NoError(t, c.Momentum.Transfer())
		dst, _ := pres.Get(HuY)
		assert.Equal(t, src.Values, dst.Values)
		src.Fill(0)
		assert.Equal(t, 2.5, dst.Values[0])

		adv, _ := pres.Get(VAdv)
		adv.Fill(-1)
		p, _ := pres.Get(Pressure)
		p.Fill(4)
		require.NoError(t, c.Pressure.Transfer())
		back, _ := mom.Get(VAdv)
		assert.Equal(t, -1., back.Values[3])
		pBack, _ := mom.Get(Pressure)
		assert.Equal(t, 4., pBack.Values[5])
	}
	var ce *types.ConfigurationError
	{ // Missing on the pressure side
		mom := full()
		pres := fields.NewStorage(m, nil)
		pres.MustAdd(UStar, fields.KindVelocity)
		_, err := NewCoupling(2, mom, pres)
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, AinvX, ce.Param)
	}
	{ // Wrong kind on the momentum side
		mom := fields.NewStorage(m, nil)
		mom.MustAdd(UStar, fields.KindAuxiliary)
		_, err := NewCoupling(2, mom, full())
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, UStar, ce.Param)
	}
}

func TestBuildRegistry(t *testing.T) {
	m, err := mesh.NewChannelMesh(3, 2, 3, 2)
	require.NoError(t, err)
	reg, err := BuildRegistry(m, ChannelSpecs(2, 0.5))
	require.NoError(t, err)
	// Each user variable lands on both exchanged fields
	assert.Equal(t, 2*7, reg.Len())
	for _, name := range []string{UStar, UAdv} {
		c, ok := reg.Dirichlet(mesh.Left, name)
		require.True(t, ok, name)
		assert.Equal(t, 2., c.Value)
		assert.Equal(t, types.BC_Flow, c.Category)
	}
	for _, name := range []string{Pressure, PressureOld} {
		c, ok := reg.Dirichlet(mesh.Right, name)
		require.True(t, ok, name)
		assert.Equal(t, 0.5, c.Value)
	}
	_, ok := reg.Dirichlet(mesh.Right, UStar)
	assert.False(t, ok)

	var ce *types.ConfigurationError
	one := 1.
	for _, spec := range []BoundarySpec{
		{Category: "inlet", Boundary: "left", Variable: "u", Value: &one},
		{Category: "flow", Boundary: "front", Variable: "u", Value: &one},
		{Category: "flow", Boundary: "left", Variable: "T", Value: &one},
	} {
		_, err := BuildRegistry(m, []BoundarySpec{spec})
		assert.ErrorAs(t, err, &ce)
	}
	specs := []BoundarySpec{
		{Category: "symmetry", Boundary: "top", Variable: "v"},
		{Category: "flow", Boundary: "left", Variable: "u"},
		{Category: "flow", Boundary: "left", Variable: "pressure"},
	}
	SortSpecs(specs)
	assert.Equal(t, "left", specs[0].Boundary)
	assert.Equal(t, "pressure", specs[0].Variable)
	assert.Equal(t, "top", specs[2].Boundary)
}

// channelParams is the steady 50x10 channel with under relaxed momentum
func channelParams() (ChannelParams, Params) {
	p := DefaultParams()
	p.Mu, p.Rho = 0.1, 1
	p.Relaxation = 0.7
	p.MomentumRelaxation = 0.7
	p.OuterIterations = 2
	p.ParallelDegree = 4
	p.InitialVelocity = [3]float64{1, 0, 0}
	return ChannelParams{NX: 50, NY: 10, LX: 5, LY: 1, InletVelocity: 1, OutletPressure: 0}, p
}

func TestChannel(t *testing.T) {
	cp, p := channelParams()
	o, err := NewChannel(cp, p, zap.NewNop())
	require.NoError(t, err)
	m := o.Mesh
	require.Equal(t, 500, m.NumElements)
	for it := 1; it <= p.OuterIterations; it++ {
		res, err := o.Step()
		require.NoError(t, err)
		assert.Equal(t, it, res.Iteration)
		for i := 0; i < 2; i++ {
			assert.True(t, res.Momentum[i].Converged)
		}

		// The pressure solve satisfies its residual to the solver tolerance everywhere
		require.True(t, res.Pressure.Converged)
		r := make([]types.ADReal, m.NumElements)
		require.NoError(t, o.pSystem.Residual(r))
		tol := math.Max(p.Pressure.AbsTol, p.Pressure.RelTol*res.Pressure.InitialNorm)
		for k := range r {
			assert.LessOrEqual(t, math.Abs(r[k].Real), tol*(1+1.e-6), "element %d", k)
		}
		// The face mass balance of the predicted velocity is what the pressure solve removes
		assert.Greater(t, res.MassImbalanceBefore, 0.)
		assert.Less(t, res.MassImbalanceAfter, res.MassImbalanceBefore)

		// The corrected velocity differs from the prediction by the pressure gradient correction only
		var (
			pNew, _ = o.PressureFields.Get(Pressure)
			pOld, _ = o.PressureFields.Get(PressureOld)
		)
		for i := 0; i < 2; i++ {
			var (
				star, _ = o.PressureFields.Get(StarNames[i])
				ainv, _ = o.PressureFields.Get(AinvNames[i])
				adv, _  = o.Field(AdvNames[i])
			)
			for k := 0; k < m.NumElements; k++ {
				dGrad := pNew.Gradient(k)[i].Real - pOld.Gradient(k)[i].Real
				want := p.Relaxation * ainv.Values[k] * dGrad
				assert.InDelta(t, want, star.Values[k]-adv.Values[k], 1.e-10, "component %d element %d", i, k)
			}
		}
		// Momentum and pressure sub-problems agree on the exchanged state
		pm, _ := o.Field(Pressure)
		assert.Equal(t, pNew.Values, pm.Values)
		ax, _ := o.Field(AinvX)
		for k := range m.Volumes {
			assert.Greater(t, ax.Values[k], 0.)
		}
	}
	{ // Some interior cell balances its face fluxes better with Rhie-Chow than with averaging
		var (
			rc     = divergence(t, o, insfv.RhieChow)
			avg    = divergence(t, o, insfv.AverageVelocity)
			better int
		)
		for j := 1; j < cp.NY-1; j++ {
			for i := 1; i < cp.NX-1; i++ {
				if k := j*cp.NX + i; math.Abs(rc[k]) < math.Abs(avg[k]) {
					better++
				}
			}
		}
		assert.Greater(t, better, 0)
	}
}

// divergence sums the outward face flux of every cell using the momentum face velocity
func divergence(t *testing.T, o *Orchestrator, method insfv.VelocityInterp) (div []float64) {
	var (
		m = o.Mesh
		k = o.momentum[0]
	)
	require.NoError(t, k.Prepare())
	div = make([]float64, m.NumElements)
	for i := range m.FaceInfos {
		fi := &m.FaceInfos[i]
		v, err := k.InterpolateVelocity(0, method, fi)
		require.NoError(t, err)
		flux := v.Dot(fi.Normal).Real * fi.SurfaceArea()
		div[fi.Elem] += flux
		if !fi.IsBoundary() {
			div[fi.Neighbor] -= flux
		}
	}
	return
}

func l1(vals []float64) (sum float64) {
	for _, v := range vals {
		sum += math.Abs(v)
	}
	return
}

func TestFullyDevelopedChannel(t *testing.T) {
	if testing.Short() {
		t.Skip("outer iterations to convergence")
	}
	for _, tc := range []struct {
		name      string
		transient bool
		dt        float64
		relax     float64
		its       int
	}{
		{"momentum relaxation", false, 0, 0.7, 40},
		{"pseudo time step", true, 0.05, 1, 30},
	} {
		cp, p := channelParams()
		p.OuterIterations = tc.its
		p.Transient, p.Dt = tc.transient, tc.dt
		p.MomentumRelaxation = tc.relax
		o, err := NewChannel(cp, p, zap.NewNop())
		require.NoError(t, err, tc.name)
		results, err := o.Run()
		require.NoError(t, err, tc.name)
		require.Len(t, results, tc.its)
		first, last := results[0], results[len(results)-1]
		assert.Less(t, last.MassImbalanceBefore, 1.e-3*first.MassImbalanceBefore, tc.name)

		var (
			pressure, _ = o.Field(Pressure)
			u, _        = o.Field(UAdv)
			mid         = cp.NY / 2
			outlet      = func(j int) int { return j*cp.NX + cp.NX - 1 }
		)
		// Poiseuille pressure drop 12*mu*U*L/h^2 from the inlet column to the outlet
		pIn := 0.5 * (pressure.Values[mid*cp.NX] + pressure.Values[(mid-1)*cp.NX])
		assert.InDelta(t, 12*p.Mu*1*cp.LX/(cp.LY*cp.LY), pIn, 0.6, tc.name)
		// Parabolic profile with a centreline velocity 1.5 times the mean
		uMid := 0.5 * (u.Values[outlet(mid)] + u.Values[outlet(mid-1)])
		assert.InDelta(t, 1.5, uMid, 0.1, tc.name)
		for j := 0; j < cp.NY/2; j++ {
			assert.InDelta(t, u.Values[outlet(j)], u.Values[outlet(cp.NY-1-j)], 1.e-6, "%s row %d", tc.name, j)
			if j+1 < cp.NY/2 {
				assert.Less(t, u.Values[outlet(j)], u.Values[outlet(j+1)], "%s row %d", tc.name, j)
			}
		}

		// Rhie-Chow face velocities remove the cell mass imbalance left by plain averaging
		var (
			rc  = divergence(t, o, insfv.RhieChow)
			avg = divergence(t, o, insfv.AverageVelocity)
		)
		assert.Less(t, l1(rc), l1(avg), tc.name)
		var better int
		for k := range rc {
			if math.Abs(rc[k]) < math.Abs(avg[k]) {
				better++
			}
		}
		assert.Greater(t, better, 0, tc.name)
	}
}

func TestRun(t *testing.T) {
	cp, p := channelParams()
	cp.NX, cp.NY = 12, 4
	p.OuterIterations = 3
	p.Transient = false
	o, err := NewChannel(cp, p, nil)
	require.NoError(t, err)
	results, err := o.Run()
	require.NoError(t, err)
	assert.Len(t, results, 3)
	for _, res := range results {
		assert.True(t, res.Pressure.Converged)
	}
	var ce *types.ConfigurationError
	{
		bad := p
		bad.OuterIterations = 0
		_, err := NewChannel(cp, bad, nil)
		assert.ErrorAs(t, err, &ce)
	}
	{
		bad := p
		bad.Relaxation = 1.2
		_, err := NewChannel(cp, bad, nil)
		assert.ErrorAs(t, err, &ce)
	}
	{
		bad := p
		bad.MomentumRelaxation = 0
		_, err := NewChannel(cp, bad, nil)
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "momentum_relaxation", ce.Param)
	}
	{
		bad := p
		bad.VelocityInterp = "linear"
		_, err := NewChannel(cp, bad, nil)
		assert.ErrorAs(t, err, &ce)
	}
}
