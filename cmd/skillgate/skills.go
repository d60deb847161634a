package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/skillgate/skillgate/internal/cli"
	"github.com/skillgate/skillgate/pkg/domain"
	"github.com/spf13/cobra"
)

// skillsCmd lists the skill catalog: built-ins plus any configured pack.
var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "List registered skills",
	Run: func(cmd *cobra.Command, args []string) {
		opts := optionsFromFlags(cmd)
		logger := cli.CreateLogger(opts.Debug)

		engine, err := cli.CreateEngine(opts, logger)
		if err != nil {
			fmt.Printf("Error initializing skillgate: %v\n", err)
			os.Exit(1)
		}

		printSkills(engine.Skills())
	},
}

func printSkills(defs []domain.SkillDefinition) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSENSITIVE\tPARAMETERS")
	for _, def := range defs {
		fmt.Fprintf(w, "%s\t%s\t%v\t%s\n", def.ID, def.Name, def.IsSensitive, formatParams(def.Parameters))
	}
	w.Flush()
}

func formatParams(params []domain.SkillParameter) string {
	if len(params) == 0 {
		return "-"
	}
	out := ""
	for i, p := range params {
		if i > 0 {
			out += ", "
		}
		out += p.Name + ":" + string(p.Type)
		if p.Required {
			out += "!"
		}
	}
	return out
}

func init() {
	rootCmd.AddCommand(skillsCmd)
}
