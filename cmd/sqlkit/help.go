package main

import (
	"fmt"
	"io"
)

const helpText = `sqlkit - cross-database structure export and import

Usage:
  sqlkit [options] <command>

Commands:
  -list                  List tables
  -export t1,t2          Export table structure (#__ placeholder allowed, "-" = tables from config)
  -import FILE           Merge a structure dump or bundle into the database
  -receive               Merge the next dump from the configured transport
  -report t1,t2          Write an XLSX structure report (requires -output)
  -split FILE            Split an SQL script into statements (-exec runs them)

Options:
  -config FILE           Configuration file (default: config.yaml)
  -output FILE           Output file (default: stdout)
  -bundle                Wrap the export into a checksummed, optionally compressed bundle
  -send                  Ship the export through the configured transport
  -plan                  Print import statements instead of executing them
  -create-config DRIVER  Print a configuration template
  -version               Show version

Drivers:
  mysql, mysqli, postgresql, pgsql, sqlite, sqlsrv, sqlazure, oracle

Transports:
  rabbitmq, kafka, s3, file
`

func PrintHelp(w io.Writer) {
	fmt.Fprint(w, helpText)
}
