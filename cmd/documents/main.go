package main

import (
	"flag"

	"kyri56xcaesar/clubs-proj/internal/mdocument"
)

func main() {
	confPath := flag.String("config", "configs/documents.env", "path to the .env config")
	flag.Parse()

	mdocument.InitAndServe(*confPath)
}
