// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/common-nighthawk/go-figure"

	"rivaas.dev/mvc/router"
)

var gradient = []string{"12", "14", "10", "11"}

var (
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// printBanner writes the service name as ASCII art followed by the
// route table. Colors are downsampled to what w supports and stripped
// when w is not a terminal.
func printBanner(w io.Writer, addr string, routes []*router.Route) {
	cpw := colorprofile.NewWriter(w, os.Environ())

	var b strings.Builder
	for _, line := range figure.NewFigure(serviceName, "", false).Slicify() {
		if strings.TrimSpace(line) == "" {
			continue
		}
		for i, ch := range line {
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(gradient[i%len(gradient)])).Bold(true)
			b.WriteString(style.Render(string(ch)))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("listening on"), valueStyle.Render(addr))
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("routes"), valueStyle.Render(fmt.Sprint(len(routes))))
	b.WriteString(routeTable(routes))
	b.WriteString("\n")

	_, _ = fmt.Fprint(cpw, b.String()) //nolint:errcheck // banner output is best effort
}

func routeTable(routes []*router.Route) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("VERBS", "PATTERN", "VARIABLES").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, rt := range routes {
		verbs := "ANY"
		if !rt.AnyVerb() {
			verbs = strings.Join(rt.Verbs(), ",")
		}
		t.Row(verbs, rt.Pattern(), strings.Join(rt.Vars(), ","))
	}

	return t.Render()
}
