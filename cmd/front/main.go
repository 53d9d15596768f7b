package main

import (
	"flag"

	"kyri56xcaesar/clubs-proj/internal/front"
)

func main() {
	confPath := flag.String("config", "configs/front.env", "path to the .env config")
	flag.Parse()

	front.InitAndServe(*confPath)
}
