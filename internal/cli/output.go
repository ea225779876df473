package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// Output — вывод команд: таблица для терминала или JSON (--json).
type Output struct {
	jsonMode bool
	w        io.Writer // данные
	errW     io.Writer // сообщения для человека
}

// NewOutput создаёт Output, пишущий в stdout и stderr.
func NewOutput(jsonMode bool) *Output {
	return &Output{
		jsonMode: jsonMode,
		w:        os.Stdout,
		errW:     os.Stderr,
	}
}

// Print выводит список записей таблицей с заголовками headers.
// В JSON-режиме печатается jsonData как есть.
func (o *Output) Print(headers []string, rows [][]string, jsonData any) error {
	if o.jsonMode {
		return o.json(jsonData)
	}

	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(rows) == 0 {
		fmt.Fprintln(o.errW, "No results")
	}
	return nil
}

// Fields выводит одну запись парами "имя: значение".
// Поля с пустым значением пропускаются.
func (o *Output) Fields(fields [][2]string, jsonData any) error {
	if o.jsonMode {
		return o.json(jsonData)
	}

	tw := tabwriter.NewWriter(o.w, 0, 0, 1, ' ', 0)
	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		fmt.Fprintf(tw, "%s:\t%s\n", f[0], f[1])
	}
	return tw.Flush()
}

// Success выводит сообщение об успехе в stderr.
func (o *Output) Success(msg string) {
	fmt.Fprintln(o.errW, msg)
}

func (o *Output) json(v any) error {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
