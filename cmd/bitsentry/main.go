package main

/*------------------------------------------------------------------
 *
 * Purpose:	Differential hardware-Trojan detection for Virtex-5
 *		bitstreams: compare a suspect .bit against a golden
 *		reference and report ranked anomalies.
 *
 *------------------------------------------------------------------*/

import (
	bitsentry "github.com/doismellburning/bitsentry/src"
)

func main() {
	bitsentry.DetectMain()
}
