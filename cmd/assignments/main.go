package main

import (
	"flag"

	"kyri56xcaesar/clubs-proj/internal/massign"
)

func main() {
	confPath := flag.String("config", "configs/assignments.env", "path to the .env config")
	flag.Parse()

	massign.InitAndServe(*confPath)
}
