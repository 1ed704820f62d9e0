// discover-frames opens the portal in a visible browser and prints the
// frame tree, probing each frame for the expressions in the selector
// table. The output shows which frame actually hosts each locator, which
// is what you need when the portal moves a control after an upgrade.
//
// Usage:
//
//	go run ./scripts/discover-frames -url=https://sei.example/sei
//
// The browser stays open so you can log in and navigate manually; press
// ENTER at each screen you want inspected, or Ctrl+C to stop.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/FilipeCampos25/dashboardSei/internal/config"
	"github.com/FilipeCampos25/dashboardSei/internal/scraper/browser"
	"github.com/FilipeCampos25/dashboardSei/internal/scraper/sei"
)

func main() {
	cfg := config.Load()
	url := flag.String("url", cfg.SEIURL, "portal URL to open")
	selectorsPath := flag.String("selectors", cfg.SelectorsPath, "selector table to probe with")
	flag.Parse()

	if *url == "" {
		fmt.Fprintln(os.Stderr, "no URL: pass -url or set url_sei")
		os.Exit(2)
	}

	sel, err := sei.LoadSelectors(*selectorsPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	probes := probeTable(sel)

	d, err := browser.NewRodDriver(browser.WithHeadless(false))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer d.Close()

	if err := d.Navigate(*url); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	stdin := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("\nNavigate to the screen to inspect, then press ENTER (Ctrl+C to quit): ")
		if _, err := stdin.ReadString('\n'); err != nil {
			return
		}
		_ = browser.WaitReady(d, 10*time.Second)
		report(d, probes)
	}
}

type probe struct {
	name string
	expr string
}

// probeTable flattens the selector table into named probes, overrides
// included.
func probeTable(sel *sei.Selectors) []probe {
	probes := []probe{
		{"login.username", sel.Login.Username},
		{"login.password", sel.Login.Password},
		{"login.acessar", sel.Login.Submit},
		{"tela_inicio.bloco", sel.Home.BlockMenu},
		{"tela_inicio.interno", sel.Home.InternalMenu},
		{"tela_inicio.remove_pup_pop", sel.Home.DismissPopup},
		{"interno.tabela_blocos_rows", sel.Internal.TableRows},
		{"interno.paginacao_proxima", sel.Internal.NextPage},
		{"interno.processo", sel.Internal.Process},
		{"interno.documentos_do_processo", sel.Internal.Documents},
		{"interno.plus", sel.Internal.ExpandIcon},
	}
	for screen, keys := range sel.Overrides {
		for key, expr := range keys {
			probes = append(probes, probe{screen + "." + key, expr})
		}
	}
	sort.Slice(probes, func(i, j int) bool { return probes[i].name < probes[j].name })

	out := probes[:0]
	for _, p := range probes {
		if p.expr != "" {
			out = append(out, p)
		}
	}
	return out
}

func report(d browser.Driver, probes []probe) {
	title, _ := d.Title()
	url, _ := d.URL()
	fmt.Printf("\n=== %s\n    %s\n", title, url)

	fmt.Println("--- default document")
	probeContext(d, probes)

	frames, err := d.Frames()
	if err != nil {
		fmt.Printf("frame inventory failed: %v\n", err)
		return
	}
	for _, fr := range frames {
		fmt.Printf("--- frame %d id=%q name=%q src=%q\n", fr.Index, fr.ID, fr.Name, fr.Src)
		if err := d.EnterFrame(fr.Index); err != nil {
			fmt.Printf("    cannot enter: %v\n", err)
			continue
		}
		probeContext(d, probes)
		if err := d.DefaultContent(); err != nil {
			fmt.Printf("    cannot leave: %v\n", err)
			return
		}
	}
}

func probeContext(d browser.Driver, probes []probe) {
	for _, p := range probes {
		els, err := d.Find(p.expr)
		if err != nil || len(els) == 0 {
			continue
		}
		fmt.Printf("    %-34s %d match(es)\n", p.name, len(els))
	}
}
