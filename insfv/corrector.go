package insfv

import (
	"github.com/notargets/insfv/fields"
	"github.com/notargets/insfv/types"
)

type CorrectorParams struct {
	Name        string
	Velocity    [3]string // Corrected velocity, written
	Star        [3]string // Predicted velocity
	Ainv        [3]string
	Pressure    string
	PressureOld string
	Relaxation  float64
}

/*
VelocityCorrector is a direct per element assignment, no residual:

	v_i = v*_i - relax*Ainv_i*((grad p)_i - (grad p_old)_i)
*/
type VelocityCorrector struct {
	Params CorrectorParams
	Dim    int

	session  *Session
	velocity [3]*fields.Field
	star     [3]*fields.Field
	ainv     [3]*fields.Field
	p, pOld  *fields.Field
}

func NewVelocityCorrector(sess *Session, st *fields.Storage,
	p CorrectorParams) (c *VelocityCorrector, err error) {
	c = &VelocityCorrector{
		Params:  p,
		Dim:     st.Mesh.Dim,
		session: sess,
	}
	if !(p.Relaxation > 0 && p.Relaxation <= 1) {
		return nil, types.NewConfigurationError(p.Name, "relaxation",
			"relaxation factor %g is outside (0,1]", p.Relaxation)
	}
	if c.p, err = st.Require(p.Name, "pressure", p.Pressure, fields.KindPressure); err != nil {
		return nil, err
	}
	if c.pOld, err = st.Require(p.Name, "pressure_old", p.PressureOld, fields.KindAuxiliary); err != nil {
		return nil, err
	}
	comps := [3]string{"x", "y", "z"}
	for i := 0; i < c.Dim; i++ {
		if c.velocity[i], err = st.Require(p.Name, "velocity_"+comps[i], p.Velocity[i], fields.KindVelocity); err != nil {
			return nil, err
		}
		if c.star[i], err = st.Require(p.Name, "star_"+comps[i], p.Star[i], fields.KindVelocity); err != nil {
			return nil, err
		}
		if c.ainv[i], err = st.Require(p.Name, "Ainv_"+comps[i], p.Ainv[i], fields.KindAuxiliary); err != nil {
			return nil, err
		}
	}
	return
}

// Correct overwrites the corrected velocity, run once per outer iteration after the pressure solve
func (c *VelocityCorrector) Correct() (err error) {
	c.p.PrepareGradients()
	c.pOld.PrepareGradients()
	relax := c.Params.Relaxation
	err = c.session.Partitions.RunPartitioned(func(tid, kMin, kMax int) error {
		for k := kMin; k < kMax; k++ {
			var (
				gradNew = c.p.Gradient(k)
				gradOld = c.pOld.Gradient(k)
			)
			for i := 0; i < c.Dim; i++ {
				dGrad := gradNew[i].Real - gradOld[i].Real
				c.velocity[i].Values[k] = c.star[i].Values[k] - relax*c.ainv[i].Values[k]*dGrad
			}
		}
		return nil
	})
	for i := 0; i < c.Dim; i++ {
		c.velocity[i].Invalidate()
	}
	return
}
