package segregated

import (
	"fmt"

	"github.com/notargets/insfv/fields"
	"github.com/notargets/insfv/types"
)

// Field names shared by the momentum and pressure sub-problems
const (
	UStar       = "u_star"
	VStar       = "v_star"
	WStar       = "w_star"
	AinvX       = "Ainv_x"
	AinvY       = "Ainv_y"
	AinvZ       = "Ainv_z"
	HuX         = "Hu_x"
	HuY         = "Hu_y"
	HuZ         = "Hu_z"
	RHSX        = "RHS_x"
	RHSY        = "RHS_y"
	RHSZ        = "RHS_z"
	PressureOld = "pressure_old"
	UAdv        = "u_adv"
	VAdv        = "v_adv"
	WAdv        = "w_adv"
	Pressure    = "pressure"
)

var (
	StarNames = [3]string{UStar, VStar, WStar}
	AinvNames = [3]string{AinvX, AinvY, AinvZ}
	HuNames   = [3]string{HuX, HuY, HuZ}
	RHSNames  = [3]string{RHSX, RHSY, RHSZ}
	AdvNames  = [3]string{UAdv, VAdv, WAdv}
)

type link struct {
	src, dst *fields.Field
}

/*
MomentumRecord carries the predicted velocity, the inverse coefficients, the momentum sources,
the momentum residuals and the pressure snapshot from the momentum to the pressure sub-problem.
*/
type MomentumRecord struct {
	Star, Ainv, Hu, RHS [3]link
	PressureOld         link
	dim                 int
}

// PressureRecord carries the corrected velocity and the pressure back to the momentum sub-problem
type PressureRecord struct {
	Adv      [3]link
	Pressure link
	dim      int
}

// Coupling is both records, resolved and checked once against the two storages
type Coupling struct {
	Momentum MomentumRecord
	Pressure PressureRecord
}

func NewCoupling(dim int, momentum, pressure *fields.Storage) (c *Coupling, err error) {
	c = &Coupling{
		Momentum: MomentumRecord{dim: dim},
		Pressure: PressureRecord{dim: dim},
	}
	resolve := func(name string, kind fields.Kind, from, to *fields.Storage) (l link, err error) {
		if l.src, err = from.Require("coupling", name, name, kind); err != nil {
			return
		}
		l.dst, err = to.Require("coupling", name, name, kind)
		return
	}
	for i := 0; i < dim; i++ {
		if c.Momentum.Star[i], err = resolve(StarNames[i], fields.KindVelocity, momentum, pressure); err != nil {
			return nil, err
		}
		if c.Momentum.Ainv[i], err = resolve(AinvNames[i], fields.KindAuxiliary, momentum, pressure); err != nil {
			return nil, err
		}
		if c.Momentum.Hu[i], err = resolve(HuNames[i], fields.KindAuxiliary, momentum, pressure); err != nil {
			return nil, err
		}
		if c.Momentum.RHS[i], err = resolve(RHSNames[i], fields.KindAuxiliary, momentum, pressure); err != nil {
			return nil, err
		}
		if c.Pressure.Adv[i], err = resolve(AdvNames[i], fields.KindVelocity, pressure, momentum); err != nil {
			return nil, err
		}
	}
	if c.Momentum.PressureOld, err = resolve(PressureOld, fields.KindAuxiliary, momentum, pressure); err != nil {
		return nil, err
	}
	if c.Pressure.Pressure, err = resolve(Pressure, fields.KindPressure, pressure, momentum); err != nil {
		return nil, err
	}
	return
}

func (l link) copy() error {
	if err := l.dst.CopyFrom(l.src); err != nil {
		return types.NewInvariantViolation("segregated.copy", "%v", err)
	}
	return nil
}

func copyAll(links ...link) (err error) {
	for _, l := range links {
		if l.src == nil {
			continue
		}
		if err = l.copy(); err != nil {
			return fmt.Errorf("copying %s: %w", l.src.Name, err)
		}
	}
	return
}

// Transfer copies every field of the record into the pressure sub-problem
func (r *MomentumRecord) Transfer() error {
	links := []link{r.PressureOld}
	for i := 0; i < r.dim; i++ {
		links = append(links, r.Star[i], r.Ainv[i], r.Hu[i], r.RHS[i])
	}
	return copyAll(links...)
}

// Transfer copies the corrected velocity and the pressure into the momentum sub-problem
func (r *PressureRecord) Transfer() error {
	links := []link{r.Pressure}
	links = append(links, r.Adv[:r.dim]...)
	return copyAll(links...)
}
