// Generates an example HTML transcript and writes it to stdout.
// Usage: go run ./render/html/cmd/example > example.html
package main

import (
	"os"
	"time"

	"github.com/sonnes/lekhak/core"
	"github.com/sonnes/lekhak/layout"
	htmlrender "github.com/sonnes/lekhak/render/html"
)

func main() {
	now := time.Date(2026, 2, 13, 10, 15, 0, 0, time.UTC)

	c, err := layout.NewComposer(layout.Default(), nil, nil)
	if err != nil {
		fail(err)
	}

	d := core.NewDocument("userSession", c.Layout.Size(), now)
	d.AddPage(c.Cover(d, now))
	turns := []core.ChatTurn{
		{
			Question: "What trims does the 2026 sedan come in?",
			Answer:   "The 2026 sedan is offered in **Base**, **Sport** and **Touring** trims. The Sport adds 18-inch wheels and a tuned suspension; the Touring adds leather seats, a sunroof and adaptive cruise control.",
		},
		{
			Question: "How do I pair my phone?",
			Answer:   "Open `Settings > Bluetooth` on the head unit, choose *Add device* and confirm the six-digit code on your phone.",
		},
	}
	for i, turn := range turns {
		turn.At = now.Add(time.Duration(i+1) * time.Minute)
		d.AddPage(c.Chat(d, turn))
	}
	d.AddPage(c.Dealer(d, core.DealerInfo{
		Name:   "Acme Motors",
		Info:   "Downtown showroom, open 9 to 6",
		Number: "555-0100",
	}, now.Add(5*time.Minute)))
	c.Stamp(d)
	d.UpdatedAt = now.Add(5 * time.Minute)

	if err := htmlrender.New().Render(os.Stdout, d); err != nil {
		fail(err)
	}
}

func fail(err error) {
	os.Stderr.WriteString("error: " + err.Error() + "\n")
	os.Exit(1)
}
