// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// gvsig parses one or more GVariant type signatures given as arguments
// (or one per line of stdin if none are given) and prints each one's
// alignment, fixed size (0 if dynamic), bound child size, nesting depth,
// and character length.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/c-util/govariant"
)

func summarize(out *bufio.Writer, sig string) error {
	sum, err := govariant.ParseType(sig)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s\talign=%d\tsize=%d\tbound=%d\tdepth=%d\tlen=%d\n",
		sig, sum.Align, sum.Size, sum.BoundSize, sum.Depth, sum.Len)
	return err
}

func main() {
	flag.Parse()
	out := bufio.NewWriter(os.Stdout)
	args := flag.Args()
	status := 0
	if len(args) == 0 {
		in := bufio.NewScanner(os.Stdin)
		for in.Scan() {
			if err := summarize(out, in.Text()); err != nil {
				fmt.Fprintf(os.Stderr, "%q: %s\n", in.Text(), err)
				status = 1
			}
		}
	} else {
		for _, sig := range args {
			if err := summarize(out, sig); err != nil {
				fmt.Fprintf(os.Stderr, "%q: %s\n", sig, err)
				status = 1
			}
		}
	}
	if err := out.Flush(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		status = 1
	}
	os.Exit(status)
}
