package main

/*------------------------------------------------------------------
 *
 * Purpose:	Build and save a golden baseline snapshot from a
 *		trusted bitstream.
 *
 *------------------------------------------------------------------*/

import (
	bitsentry "github.com/doismellburning/bitsentry/src"
)

func main() {
	bitsentry.MkBaselineMain()
}
