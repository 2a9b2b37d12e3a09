package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glasspane/glasspane/internal/network"
	"github.com/glasspane/glasspane/internal/protocol"
)

var (
	drawAddr   string
	drawTitle  string
	drawWidth  int
	drawHeight int
	drawClose  bool
)

var drawCmd = &cobra.Command{
	Use:   "draw",
	Short: "Draw a test gradient into a new window",
	Long: `Connect to a running server, create a window, blit a color gradient
into it and list the windows. A quick smoke test for the whole
pipeline: protocol, registry, blit, compositor and display sink.`,
	RunE: runDraw,
}

func init() {
	drawCmd.Flags().StringVarP(&drawAddr, "addr", "a", "127.0.0.1:8765", "Server address")
	drawCmd.Flags().StringVarP(&drawTitle, "title", "t", "glasspane test", "Window title")
	drawCmd.Flags().IntVar(&drawWidth, "width", 256, "Window width")
	drawCmd.Flags().IntVar(&drawHeight, "height", 256, "Window height")
	drawCmd.Flags().BoolVar(&drawClose, "close", false, "Close the window afterwards")
}

func runDraw(cmd *cobra.Command, args []string) error {
	client, err := network.Dial(drawAddr)
	if err != nil {
		return err
	}
	defer client.Close()

	resp, err := client.Send(protocol.CreateWindow{
		Title:  drawTitle,
		Width:  drawWidth,
		Height: drawHeight,
	})
	if err != nil {
		return err
	}
	created, err := resp.Success()
	if err != nil {
		return err
	}
	fmt.Printf("Created window %d (%dx%d)\n", created.WindowID, drawWidth, drawHeight)

	resp, err = client.Send(protocol.DrawToSurface{
		WindowID: created.WindowID,
		X:        0,
		Y:        0,
		Width:    drawWidth,
		Height:   drawHeight,
		Pixels:   protocol.EncodePixels(gradient(drawWidth, drawHeight)),
	})
	if err != nil {
		return err
	}
	if _, err := resp.Success(); err != nil {
		return err
	}
	fmt.Println("Drew gradient")

	resp, err = client.Send(protocol.GetWindows{})
	if err != nil {
		return err
	}
	windows, err := resp.Windows()
	if err != nil {
		return err
	}
	for _, w := range windows {
		fmt.Printf("  window %d %q %dx%d\n", w.ID, w.Title, w.Width, w.Height)
	}

	if drawClose {
		resp, err = client.Send(protocol.CloseWindow{WindowID: created.WindowID})
		if err != nil {
			return err
		}
		if _, err := resp.Success(); err != nil {
			return err
		}
		fmt.Printf("Closed window %d\n", created.WindowID)
	}
	return nil
}

// gradient builds RGBA test pixels: red rises left to right, green top
// to bottom, with a constant blue floor.
func gradient(width, height int) []byte {
	pix := make([]byte, width*height*4)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			off := (y*width + x) * 4
			pix[off] = byte(x * 255 / max(width-1, 1))
			pix[off+1] = byte(y * 255 / max(height-1, 1))
			pix[off+2] = 64
			pix[off+3] = 255
		}
	}
	return pix
}
