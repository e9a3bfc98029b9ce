package main

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/sweeney/nexus-receiver/internal/nexus"
	"github.com/urfave/cli/v2"
)

func decodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     "decode a captured edge log (one microsecond timestamp per line)",
		ArgsUsage: "[FILE]",
		Description: "Reads falling-edge timestamps from FILE, or stdin when FILE is absent or \"-\"," +
			"\nfeeds them to a decoder and prints every accepted reading followed by the decoder counters." +
			"\nBlank lines and lines starting with # are ignored.",
		Action: func(c *cli.Context) error {
			in := io.Reader(os.Stdin)
			if path := c.Args().First(); path != "" && path != "-" {
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("open edge log: %w", err)
				}
				defer f.Close()
				in = f
			}
			_, err := decodeEdges(in, c.App.Writer)
			return err
		},
	}
}

// decodeEdges feeds every timestamp in r to a fresh decoder and writes the
// readings and final counters to w.
func decodeEdges(r io.Reader, w io.Writer) (nexus.Stats, error) {
	d := nexus.NewDecoder()

	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		ts, err := strconv.ParseUint(text, 10, 32)
		if err != nil {
			return d.Stats(), fmt.Errorf("line %d: %w", line, err)
		}
		d.Feed(uint32(ts))
		if reading, ok := d.TryTake(); ok {
			fmt.Fprintf(w, "reading %s\n", reading)
		}
	}
	if err := sc.Err(); err != nil {
		return d.Stats(), fmt.Errorf("read edge log: %w", err)
	}

	st := d.Stats()
	fmt.Fprintf(w, "edges=%d syncs=%d noise=%d frames=%d overruns=%d frame_mismatches=%d const_mismatches=%d accepted=%d\n",
		st.Edges, st.Syncs, st.Noise, st.Frames, st.Overruns, st.Mismatches, st.ConstMismatches, st.Accepted)
	return st, nil
}

func encodeCommand() *cli.Command {
	return &cli.Command{
		Name:  "encode",
		Usage: "print the edge timestamps a sensor would transmit, for feeding to decode",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "id", Value: "0x5a", Usage: "sensor `ID` (0-255, hex with 0x)"},
			&cli.IntFlag{Name: "channel", Value: 1, Usage: "`CHANNEL` as on the sensor switch (1-3)"},
			&cli.Float64Flag{Name: "temperature", Value: 21.5, Usage: "temperature in `CELSIUS`"},
			&cli.IntFlag{Name: "humidity", Value: 45, Usage: "relative humidity in `PERCENT`"},
			&cli.BoolFlag{Name: "low-battery", Usage: "clear the battery ok flag"},
			&cli.IntFlag{Name: "repeats", Value: nexus.BurstFrames, Usage: "`N` frames in the burst"},
		},
		Action: func(c *cli.Context) error {
			id, err := strconv.ParseUint(c.String("id"), 0, 8)
			if err != nil {
				return fmt.Errorf("--id: %w", err)
			}
			ch := c.Int("channel")
			if ch < 1 || ch > 3 {
				return fmt.Errorf("--channel %d is not 1-3", ch)
			}
			temp := c.Float64("temperature")
			if temp < nexus.MinCelsius || temp > nexus.MaxCelsius {
				return fmt.Errorf("--temperature %.1f is outside %.1f..%.1f", temp, nexus.MinCelsius, nexus.MaxCelsius)
			}
			hum := c.Int("humidity")
			if hum < 0 || hum > 255 {
				return fmt.Errorf("--humidity %d is out of range", hum)
			}
			repeats := c.Int("repeats")
			if repeats < 1 {
				return fmt.Errorf("--repeats %d must be at least 1", repeats)
			}
			reading := nexus.Reading{
				ID:                uint8(id),
				Channel:           uint8(ch - 1),
				BatteryOK:         !c.Bool("low-battery"),
				TemperatureTenths: int16(math.Round(temp * 10)),
				Humidity:          uint8(hum),
			}
			encodeReading(c.App.Writer, reading, repeats)
			return nil
		},
	}
}

// encodeReading writes a comment describing r followed by the edge
// timestamps of a burst of repeats frames.
func encodeReading(w io.Writer, r nexus.Reading, repeats int) {
	f := nexus.Encode(r)
	fmt.Fprintf(w, "# %s frame=0x%09x\n", r, uint64(f))
	for _, ts := range nexus.BurstEdges(0, f, repeats) {
		fmt.Fprintln(w, ts)
	}
}
