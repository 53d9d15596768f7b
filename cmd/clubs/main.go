package main

import (
	"flag"

	"kyri56xcaesar/clubs-proj/internal/mclub"
)

func main() {
	confPath := flag.String("config", "configs/clubs.env", "path to the .env config")
	flag.Parse()

	mclub.InitAndServe(*confPath)
}
