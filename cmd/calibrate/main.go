// Calibrate records parking slot rectangles on a reference image.
//
// Usage:
//
//	calibrate --image parking.png [--output settings/slots.yaml] [--prefix Slot]
package main

import (
	"fmt"
	"image"
	"image/color"
	"os"

	console "github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v2"

	"github.com/khaledhikmat/ps-go/model"
	"github.com/khaledhikmat/ps-go/service/config"
	"gocv.io/x/gocv"
)

var (
	green    = color.RGBA{0, 255, 0, 0}
	colorize = console.New(console.FgGreen)
)

func main() {
	app := &cli.App{
		Name:  "calibrate",
		Usage: "Draw parking slot rectangles on a reference frame and write the slot table",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "image",
				Aliases:  []string{"i"},
				Usage:    "Reference frame of the parking lot",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   "settings/slots.yaml",
				Usage:   "Slot table to write (empty to only print)",
			},
			&cli.StringFlag{
				Name:  "prefix",
				Value: "Slot",
				Usage: "Slot name prefix; slots are numbered from 1",
			},
		},
		Action: calibrate,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func calibrate(c *cli.Context) error {
	path := c.String("image")
	img := gocv.IMRead(path, gocv.IMReadColor)
	if img.Empty() {
		return fmt.Errorf("could not read %s. Make sure the file exists", path)
	}
	defer img.Close()

	printInstructions()

	rects := []image.Rectangle{}
	for {
		window := gocv.NewWindow(fmt.Sprintf("Select %s%d", c.String("prefix"), len(rects)+1))
		r := window.SelectROI(img)
		window.Close()

		if r.Empty() {
			break
		}

		rects = append(rects, r)
		colorize.Printf("Recorded %s%d: (%d, %d, %d, %d)\n", c.String("prefix"), len(rects), r.Min.X, r.Min.Y, r.Dx(), r.Dy())
		gocv.Rectangle(&img, r, green, 2)
	}

	if len(rects) == 0 {
		return fmt.Errorf("no slots selected")
	}

	slots, err := buildSlots(c.String("prefix"), rects, img.Cols(), img.Rows())
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(slots)
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Print(string(data))

	if out := c.String("output"); out != "" {
		if err := slots.Save(out); err != nil {
			return err
		}
		colorize.Printf("Wrote %d slots to %s\n", len(slots.Slots), out)
	}

	return nil
}

func printInstructions() {
	heading := console.New(console.FgCyan, console.Bold)
	heading.Println("------------------------------------------------")
	heading.Println("INSTRUCTIONS:")
	fmt.Println("1. Click and drag to draw a box around a slot.")
	fmt.Println("2. Press SPACE or ENTER to confirm the selection.")
	fmt.Println("3. Press 'c' to cancel the selection.")
	fmt.Println("4. Confirm an empty selection to finish.")
	heading.Println("------------------------------------------------")
}

// buildSlots names the rectangles in selection order and records the frame
// size they were drawn on.
func buildSlots(prefix string, rects []image.Rectangle, width, height int) (config.SlotsConfig, error) {
	slots := config.DefaultSlots()
	slots.FrameWidth = width
	slots.FrameHeight = height
	slots.Slots = make([]model.SlotROI, 0, len(rects))

	for i, r := range rects {
		slots.Slots = append(slots.Slots, model.SlotROI{
			Name:   fmt.Sprintf("%s%d", prefix, i+1),
			X:      r.Min.X,
			Y:      r.Min.Y,
			Width:  r.Dx(),
			Height: r.Dy(),
		})
	}

	return slots, slots.Validate()
}
