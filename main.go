/*
 * This file is part of svosdf, derived from the Go Cesium Point Cloud Tiler distribution
 * (https://github.com/mfbonfigli/gocesiumtiler).
 * Copyright (c) 2019 Massimo Federico Bonfigli - m.federico.bonfigli@gmail.com
 *
 * This program is free software; you can redistribute it and/or modify it
 * under the terms of the GNU Lesser General Public License Version 3 as
 * published by the Free Software Foundation;
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
 * Lesser General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General Public License
 * along with this program. If not, see <http://www.gnu.org/licenses/>.
 *
 * This software also uses third party components. You can find information
 * on their credits and licensing in the file LICENSE-3RD-PARTIES.md that
 * you should have received togheter with the source code.
 */

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ecopia-map/svosdf/internal/converter"
	"github.com/ecopia-map/svosdf/pkg"
	"github.com/ecopia-map/svosdf/pkg/algorithm_manager/std_algorithm_manager"
	"github.com/ecopia-map/svosdf/tools"
	"github.com/golang/glog"
)

const VERSION = "0.3.0"

const usage = "Please specify a subcommand [build|inspect|export|generate]."

func main() {
	log.SetPrefix("[svosdf] ")
	log.SetFlags(log.LUTC | log.Ldate | log.Lmicroseconds | log.Lshortfile)
	defer glog.Flush()

	flagsGlobal := tools.ParseFlagsGlobal()
	glog.Infoln(tools.FmtJSONString(flagsGlobal))

	if *flagsGlobal.Help {
		showHelp()
		return
	}
	if *flagsGlobal.Version {
		printVersion()
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		log.Fatal(usage)
	}
	cmd, args := args[0], args[1:]

	var err error
	switch cmd {
	case converter.CommandBuild:
		err = mainCommandBuild(args)
	case converter.CommandInspect:
		err = mainCommandInspect(args)
	case converter.CommandExport:
		err = mainCommandExport(args)
	case converter.CommandGenerate:
		err = mainCommandGenerate(args)
	default:
		log.Fatalf("Unrecognized command [%q]. %s", cmd, usage)
	}

	if err != nil {
		glog.Flush()
		log.Fatalf("Error while running %s: %v", cmd, err)
	}
}

// setupCommand applies the flags shared by all commands. It returns false when the command
// should not run because help or version was requested.
func setupCommand(flags *tools.ConverterFlags) bool {
	if *flags.Help {
		showHelp()
		return false
	}
	if *flags.Version {
		printVersion()
		return false
	}

	// set logging and timestamp logging
	if *flags.Silent {
		tools.DisableLogger()
	}
	if !*flags.LogTimestamp {
		tools.DisableLoggerTimestamp()
	}
	return true
}

func mainCommandBuild(args []string) error {
	flags := tools.ParseFlagsForCommandBuild(args)
	if !setupCommand(&flags.ConverterFlags) {
		return nil
	}

	opts, err := flags.ToConverterOptions(converter.CommandBuild)
	if err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("error parsing input parameters: %w", err)
	}

	defer timeTrack(time.Now(), "build")
	if err := pkg.NewConverterBuild(tools.NewStandardFileFinder(), std_algorithm_manager.NewAlgorithmManager(opts)).Run(opts); err != nil {
		return err
	}
	tools.LogOutput("Conversion Completed")
	return nil
}

func mainCommandInspect(args []string) error {
	flags := tools.ParseFlagsForCommandInspect(args)
	if !setupCommand(&flags.ConverterFlags) {
		return nil
	}

	opts, err := flags.ToConverterOptions(converter.CommandInspect)
	if err != nil {
		return err
	}
	opts.InspectOptions = &converter.InspectOptions{Verify: *flags.Verify}
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("error parsing input parameters: %w", err)
	}

	return pkg.NewConverterInspect(tools.NewStandardFileFinder()).Run(opts)
}

func mainCommandExport(args []string) error {
	flags := tools.ParseFlagsForCommandExport(args)
	if !setupCommand(&flags.ConverterFlags) {
		return nil
	}

	opts, err := flags.ToConverterOptions(converter.CommandExport)
	if err != nil {
		return err
	}
	opts.ExportOptions = &converter.ExportOptions{Tiles: *flags.Tiles}
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("error parsing input parameters: %w", err)
	}

	defer timeTrack(time.Now(), "export")
	if err := pkg.NewConverterExport(tools.NewStandardFileFinder(), std_algorithm_manager.NewAlgorithmManager(opts)).Run(opts); err != nil {
		return err
	}
	tools.LogOutput("Export Completed")
	return nil
}

func mainCommandGenerate(args []string) error {
	flags := tools.ParseFlagsForCommandGenerate(args)
	if !setupCommand(&flags.ConverterFlags) {
		return nil
	}

	opts, err := flags.ToConverterOptions(converter.CommandGenerate)
	if err != nil {
		return err
	}
	if *flags.Dim <= 0 {
		return fmt.Errorf("error parsing input parameters: dim must be positive, got %d", *flags.Dim)
	}
	opts.GenerateOptions = &converter.GenerateOptions{
		Dim:    uint32(*flags.Dim),
		Radius: float32(*flags.Radius),
		Band:   float32(*flags.Band),
		Dx:     float32(*flags.Dx),
	}
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("error parsing input parameters: %w", err)
	}

	return pkg.NewConverterGenerate().Run(opts)
}

func timeTrack(start time.Time, name string) {
	elapsed := time.Since(start)
	tools.LogOutput(fmt.Sprintf("%s took %s", name, elapsed))
}

func showHelp() {
	fmt.Println("***")
	fmt.Println("svosdf builds sparse voxel octrees over quantized signed distance fields and exports them for GPU rendering")
	printVersion()
	fmt.Println("***")
	fmt.Println("")
	fmt.Println("Usage: svosdf [global flags] build|inspect|export|generate [command flags]")
	fmt.Println("Run a command with -help to list its flags.")
	fmt.Println("")
	fmt.Println("Global flags: ")
	flag.CommandLine.SetOutput(os.Stdout)
	flag.PrintDefaults()
}

func printVersion() {
	fmt.Println("v." + VERSION)
}
