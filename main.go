package main

import (
	"os"

	"github.com/ajgappmark/RGK/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "rgk"
	app.Usage = "render scenes using ray and path tracing"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "render the scene described by a config file",
			Description: `
Load a render job description, import the wavefront model it references
and render it with the configured tracer. Passing pixel coordinates
after the config file traces that single pixel verbosely instead of
rendering the frame.`,
			ArgsUsage: "render_job.cfg [debug_x debug_y]",
			Action:    cmd.RenderScene,
		},
		{
			Name:   "example-config",
			Usage:  "print a commented example render job description",
			Action: cmd.ShowExampleConfig,
		},
	}

	app.Run(os.Args)
}
