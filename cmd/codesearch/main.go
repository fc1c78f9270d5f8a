// Package main is the entry point of the codesearch command line client.
//
// Usage:
//
//	codesearch sig -p base/files/file_path.h -w FilePath
//	codesearch xrefs -s <signature> --all
//	codesearch callers -p base/files/file_path.h -w Append
//	codesearch annot base/files/file_path.cc -t xref-signature
//	codesearch fileinfo base/files/file_path.cc --outline
//	codesearch dirinfo base/files
//	codesearch q "FilePath::Append" -S -N 10
//	codesearch status
//
// Every command prints one JSON document to standard output.
package main

import (
	"codesearch/internal/client/commands"
	"os"
)

func main() {
	os.Exit(commands.Run(os.Args[1:], os.Stdout, os.Stderr))
}
