/*
	pic24flash
	Copyright (c) 2023 bassbreaker

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU Affero General Public License as published
	by the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU Affero General Public License for more details.

	You should have received a copy of the GNU Affero General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package feedback

import (
	"encoding/json"
	"fmt"
	"os"
)

// ExitCode to be used for Fatal.
type ExitCode int

const (
	// Success (0 is the no-error return code in Unix)
	Success ExitCode = iota

	// ErrGeneric Generic error (1 is the reserved "catchall" code in Unix)
	ErrGeneric

	_ // (2 Is reserved in Unix)

	// ErrNoConfigFile is returned when the config file is not found (3)
	ErrNoConfigFile

	_ // (4)

	// ErrNetwork is returned when a network error occurs (5)
	ErrNetwork

	_ // (6)

	// ErrBadArgument is returned when the arguments are not valid (7)
	ErrBadArgument
)

// OutputFormat is an output format
type OutputFormat int

const (
	// Text is the plain text format, suitable for interactive terminals
	Text OutputFormat = iota
	// JSON format
	JSON
)

var formats map[string]OutputFormat = map[string]OutputFormat{
	"json": JSON,
	"text": Text,
}

func (f OutputFormat) String() string {
	for res, format := range formats {
		if format == f {
			return res
		}
	}
	panic("unknown output format")
}

// ParseOutputFormat parses a string and returns the corresponding OutputFormat.
// The boolean returned is true if the string was a valid OutputFormat.
func ParseOutputFormat(in string) (OutputFormat, bool) {
	format, found := formats[in]
	return format, found
}

var (
	format         OutputFormat = Text
	formatSelected bool         = false
)

// Result is anything more complex than a sentence that needs to be printed
// for the user.
type Result interface {
	fmt.Stringer
	Data() interface{}
}

// SetFormat can be used to change the output format at runtime
func SetFormat(f OutputFormat) {
	if formatSelected {
		panic("output format already selected")
	}
	format = f
	formatSelected = true
}

// GetFormat returns the output format currently set
func GetFormat() OutputFormat {
	return format
}

// Print outputs a simple message for the user.
func Print(msg string) {
	if format == JSON {
		type message struct {
			Message string `json:"message"`
		}
		d, _ := json.MarshalIndent(&message{Message: msg}, "", "  ")
		fmt.Fprintln(os.Stdout, string(d))
		return
	}
	fmt.Fprintln(os.Stdout, msg)
}

// Error outputs an error message on stderr.
func Error(errorMsg string) {
	fmt.Fprintln(os.Stderr, errorMsg)
}

// Errorf formats and outputs an error message on stderr.
func Errorf(f string, v ...interface{}) {
	Error(fmt.Sprintf(f, v...))
}

// FatalError outputs the error and exits with status exitCode.
func FatalError(err error, exitCode ExitCode) {
	Fatal(err.Error(), exitCode)
}

// Fatal outputs the errorMsg and exits with status exitCode.
func Fatal(errorMsg string, exitCode ExitCode) {
	if format == Text {
		fmt.Fprintln(os.Stderr, errorMsg)
		os.Exit(int(exitCode))
	}

	type FatalError struct {
		Error string `json:"error"`
	}
	res := &FatalError{
		Error: errorMsg,
	}
	var d []byte
	switch format {
	case JSON:
		d, _ = json.MarshalIndent(res, "", "  ")
	default:
		panic("unknown output format")
	}
	fmt.Fprintln(os.Stdout, string(d))
	os.Exit(int(exitCode))
}

// PrintResult is a convenient wrapper to provide feedback for complex data,
// where the contents can't be just serialized to JSON but requires more
// structure.
func PrintResult(res Result) {
	var data string
	switch format {
	case JSON:
		d, err := json.MarshalIndent(res.Data(), "", "  ")
		if err != nil {
			Fatal(fmt.Sprintf("Error during JSON encoding of the output: %v", err), ErrGeneric)
		}
		data = string(d)
	case Text:
		data = res.String()
	default:
		panic("unknown output format")
	}
	if data != "" {
		fmt.Fprintln(os.Stdout, data)
	}
}
