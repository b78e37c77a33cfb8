//go:build !unix

package launcher

func helperExtra() {}
