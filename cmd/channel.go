/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/notargets/insfv/InputParameters"
	"github.com/notargets/insfv/mesh"
	"github.com/notargets/insfv/segregated"
)

type ModelINS struct {
	GridFile        string
	ICFile          string
	Profile         string // cpu, mem or empty
	OuterIterations int    // Overrides the input file when non zero
}

const exampleFile = `
########################################
Title: "Channel"
Channel: {NX: 50, NY: 10, LX: 5., LY: 1.}
Mu: 0.1
Relaxation: 0.7
MomentumRelaxation: 0.7
OuterIterations: 40
BCs:
  flow:
    left: {u: 1., v: 0.}
  fully-developed-flow:
    right: {pressure: 0.}
  no-slip-wall:
    bottom: {u: 0., v: 0.}
    top: {u: 0., v: 0.}
########################################
`

// ChannelCmd represents the channel command
var ChannelCmd = &cobra.Command{
	Use:   "channel",
	Short: "Segregated incompressible flow solve on a generated channel or a SU2 mesh",
	Long: `
Runs outer SIMPLE iterations for the case described by the input parameters file. The mesh is
the channel of the input file, or the SU2 grid file when one is given.

insfv channel -I input.yaml [-F grid.su2]`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		if err = viper.BindPFlags(cmd.Flags()); err != nil {
			return
		}
		mi := &ModelINS{
			GridFile:        viper.GetString("gridFile"),
			ICFile:          viper.GetString("inputConditionsFile"),
			Profile:         viper.GetString("profile"),
			OuterIterations: viper.GetInt("outerIterations"),
		}
		var ip *InputParameters.InputParametersINS
		if ip, err = processInput(mi); err != nil {
			return
		}
		ip.Print()
		switch mi.Profile {
		case "cpu":
			defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
		case "mem":
			defer profile.Start(profile.MemProfile, profile.ProfilePath(".")).Stop()
		}
		var results []segregated.StepResult
		if results, err = RunINS(ip, logger); err != nil {
			return
		}
		PrintResiduals(os.Stdout, results)
		return
	},
}

func init() {
	rootCmd.AddCommand(ChannelCmd)
	ChannelCmd.Flags().StringP("gridFile", "F", "", "Grid file to read in SU2 (.su2) format, replaces the input channel")
	ChannelCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters like:\n\t- Mu, Rho\n\t- Relaxation, MomentumRelaxation\n\t- BCs")
	ChannelCmd.Flags().IntP("outerIterations", "n", 0, "number of outer iterations, overrides the input file")
	ChannelCmd.Flags().String("profile", "", "profile the solve: cpu or mem")
}

func processInput(mi *ModelINS) (ip *InputParameters.InputParametersINS, err error) {
	if len(mi.ICFile) == 0 {
		fmt.Printf("Example File:%s\n", exampleFile)
		return nil, fmt.Errorf("must supply an input parameters file (-I, --inputConditionsFile) in YAML format")
	}
	var data []byte
	if data, err = os.ReadFile(mi.ICFile); err != nil {
		return
	}
	ip = &InputParameters.InputParametersINS{}
	if err = ip.Parse(data); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", mi.ICFile, err)
	}
	if len(mi.GridFile) != 0 {
		ip.MeshFile = mi.GridFile
	}
	if mi.OuterIterations != 0 {
		ip.OuterIterations = mi.OuterIterations
	}
	if err = ip.Validate(); err != nil {
		return nil, err
	}
	return
}

// RunINS builds the mesh, the boundary conditions and the orchestrator, then runs every outer iteration
func RunINS(ip *InputParameters.InputParametersINS, logger *zap.Logger) (results []segregated.StepResult, err error) {
	var m *mesh.Mesh
	if m, err = ip.Mesh(); err != nil {
		return
	}
	reg, err := segregated.BuildRegistry(m, ip.Specs())
	if err != nil {
		return
	}
	o, err := segregated.NewOrchestrator(m, reg, ip.Params(), logger.Named(ip.Title))
	if err != nil {
		return
	}
	logger.Info("starting solve",
		zap.String("title", ip.Title),
		zap.Int("elements", m.NumElements),
		zap.Int("dim", m.Dim))
	return o.Run()
}

func PrintResiduals(w io.Writer, results []segregated.StepResult) {
	fmt.Fprintf(w, "%8s%14s%14s%14s%14s%12s\n", "Iter", "Mom Res", "Mass Before", "Mass After", "Newton Its", "Time")
	for _, res := range results {
		var (
			momRes float64
			its    = res.Pressure.Iterations
		)
		for _, mr := range res.Momentum {
			momRes = max(momRes, mr.InitialNorm)
			its += mr.Iterations
		}
		fmt.Fprintf(w, "%8d%14.6e%14.6e%14.6e%14d%12s\n", res.Iteration, momRes,
			res.MassImbalanceBefore, res.MassImbalanceAfter, its, res.ElapsedTime.Round(time.Microsecond))
	}
}
