package main

import (
	"flag"
	"fmt"
	"image/color"
	"io"
	"log"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/inkbound/inkbound"
	"github.com/inkbound/inkbound/utils"
)

const helpBanner = `
┬┌┐┌┬┌─┌┐ ┌─┐┬ ┬┌┐┌┌┬┐
││││├┴┐├┴┐│ ││ ││││ ││
┴┘└┘┴ ┴└─┘└─┘└─┘┘└┘─┴┘

Region-clipped coloring engine for line-art images.
    Version: %s

`

// pipeName is the file name that indicates stdin/stdout is being used.
const pipeName = "-"

// Version indicates the current build version.
var Version string

var (
	// Flags
	source      = flag.String("in", pipeName, "Source outline image")
	destination = flag.String("out", pipeName, "Destination")
	threshold   = flag.Int("threshold", inkbound.DefaultBoundaryThreshold, "Boundary brightness threshold")
	minRegion   = flag.Int("minregion", inkbound.DefaultMinRegionSize, "Minimum region size in pixels")
	tolerance   = flag.Int("tolerance", inkbound.DefaultTolerance, "Boundary tolerance in pixels")
	exportWidth = flag.Int("width", 0, "Export width (0 keeps the source width)")
	debug       = flag.Bool("debug", false, "Write the region overlay instead of the flattened canvas")
	preview     = flag.Bool("preview", false, "Open the interactive coloring window")
)

func main() {
	log.SetFlags(0)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, helpBanner, Version)
		flag.PrintDefaults()
	}
	flag.Parse()

	proc := inkbound.NewProcessor()
	proc.BoundaryThreshold = *threshold
	proc.MinRegionSize = *minRegion
	proc.Tolerance = *tolerance
	proc.ExportWidth = *exportWidth
	proc.Debug = *debug
	proc.Background = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

	if *preview {
		runPreview(proc, *source)
		return
	}

	out, err := openDestination(*destination)
	if err != nil {
		log.Fatalf(
			utils.DecorateText("Failed to open the destination: %v", utils.ErrorMessage),
			utils.DecorateText(err.Error(), utils.DefaultMessage),
		)
	}
	defer out.Close()

	spinnerText := fmt.Sprintf("%s %s",
		utils.DecorateText("✎ INKBOUND", utils.StatusMessage),
		utils.DecorateText("is segmenting the outline...", utils.DefaultMessage))
	spinner := utils.NewSpinner(spinnerText, time.Millisecond*200, true)
	spinner.Start()

	now := time.Now()
	err = process(proc, *source, out)
	spinner.StopMsg = fmt.Sprintf("%s %s %s\n",
		utils.DecorateText("✎ INKBOUND", utils.StatusMessage),
		utils.DecorateText(fmt.Sprintf("done in %s", utils.FormatTime(time.Since(now))), utils.DefaultMessage),
		utils.DecorateText("✔", utils.SuccessMessage),
	)
	spinner.Stop()

	if err != nil {
		log.Fatalf(
			utils.DecorateText("Failed to process the outline image: %v", utils.ErrorMessage),
			utils.DecorateText(err.Error(), utils.DefaultMessage),
		)
	}
}

// process routes a named source file through the content-type sniffing
// decoder and the stdin pipe through the stream decoder.
func process(proc *inkbound.Processor, name string, out io.Writer) error {
	if name != pipeName {
		return proc.ProcessFile(name, out)
	}
	in, err := openSource(name)
	if err != nil {
		return err
	}
	return proc.Process(in, out)
}

// runPreview segments the outline and opens the interactive window.
// Drawing happens with the primary button; Z undoes, Y redoes, C clears
// the canvas, E toggles the eraser and F toggles free-draw mode.
func runPreview(proc *inkbound.Processor, name string) {
	canvas, err := loadCanvas(proc, name)
	if err != nil {
		log.Fatalf(
			utils.DecorateText("Failed to segment the outline image: %v", utils.ErrorMessage),
			utils.DecorateText(err.Error(), utils.DefaultMessage),
		)
	}

	fmt.Fprintf(os.Stderr, "%s %s\n",
		utils.DecorateText("✎ INKBOUND", utils.StatusMessage),
		utils.DecorateText(fmt.Sprintf("detected %d paintable regions", canvas.Regions.Regions), utils.DefaultMessage),
	)

	if err := inkbound.NewGUI(canvas).Run(); err != nil {
		log.Fatalf(utils.DecorateText("GUI error: %v", utils.ErrorMessage), err)
	}
}

func loadCanvas(proc *inkbound.Processor, name string) (*inkbound.Canvas, error) {
	if name != pipeName {
		return proc.InitFile(name)
	}
	in, err := openSource(name)
	if err != nil {
		return nil, err
	}
	return proc.Init(in)
}

func openSource(name string) (*os.File, error) {
	if name == pipeName {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, fmt.Errorf("`-` should be used with a pipe for stdin")
		}
		return os.Stdin, nil
	}
	return os.Open(name)
}

func openDestination(name string) (*os.File, error) {
	if name == pipeName {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return nil, fmt.Errorf("`-` should be used with a pipe for stdout")
		}
		return os.Stdout, nil
	}
	return os.Create(name)
}
