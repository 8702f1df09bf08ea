package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/alicesring/snapdemo/pkg/ringsig"
	"github.com/alicesring/snapdemo/pkg/session"
)

const tick = "✓"

func formatAddresses(addrs []ringsig.Address) string {
	parts := make([]string, len(addrs))
	for i, addr := range addrs {
		parts[i] = string(addr)
	}
	return "Address: " + strings.Join(parts, ", ")
}

func formatKeyImages(images []ringsig.KeyImage) string {
	parts := make([]string, len(images))
	for i, img := range images {
		parts[i] = img.Value
	}
	return "Key Images: " + strings.Join(parts, ", ")
}

func verificationMessage(variant ringsig.Variant, valid bool) string {
	if valid {
		return fmt.Sprintf("%s signature is valid", variant)
	}
	return fmt.Sprintf("%s signature is invalid", variant)
}

// shorten keeps artifacts readable in a table cell.
func shorten(s string) string {
	if len(s) <= 24 {
		return s
	}
	return s[:12] + "..." + s[len(s)-8:]
}

func done(ok bool) string {
	if ok {
		return tick
	}
	return ""
}

// renderStatus prints one row per workflow step.
func renderStatus(w io.Writer, st session.Status) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Ring Signature Snap - Demo")
	t.AppendHeader(table.Row{"Step", "Done", "Result"})
	t.AppendSeparator()

	t.AppendRow(table.Row{"Provider", done(st.Provider == ringsig.StatusInstalled), st.Provider.String()})
	t.AppendRow(table.Row{"Account", done(!st.Binding.IsZero()), st.Binding.ID})

	addresses := ""
	if len(st.Addresses) > 0 {
		addresses = formatAddresses(st.Addresses)
	}
	t.AppendRow(table.Row{"Addresses", done(len(st.Addresses) > 0), addresses})

	keyImages := ""
	if len(st.KeyImages) > 0 {
		keyImages = formatKeyImages(st.KeyImages)
	}
	t.AppendRow(table.Row{"Key images", done(len(st.KeyImages) > 0), keyImages})

	for _, variant := range []ringsig.Variant{ringsig.VariantSAG, ringsig.VariantLSAG} {
		sig := st.Signatures[variant]
		t.AppendRow(table.Row{variant.String() + " signature", done(sig != ""), shorten(string(sig))})
	}
	for _, variant := range []ringsig.Variant{ringsig.VariantSAG, ringsig.VariantLSAG} {
		v, ok := st.Verifications[variant]
		result := ""
		if ok {
			result = verificationMessage(variant, v.Valid)
		}
		t.AppendRow(table.Row{variant.String() + " verification", done(ok && v.Valid), result})
	}

	t.AppendFooter(table.Row{"State", "", st.State.String()})
	t.Render()
}

// printError shows err as one actionable sentence.
func printError(w io.Writer, err error) {
	fmt.Fprintln(w, ringsig.UserMessage(err))
}
