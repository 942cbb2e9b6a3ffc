package main

import (
	"fmt"

	_ "github.com/zbotkit/go-dbcache/cache"
	_ "github.com/zbotkit/go-dbcache/codec"
	_ "github.com/zbotkit/go-dbcache/config"
	_ "github.com/zbotkit/go-dbcache/logger"
	_ "github.com/zbotkit/go-dbcache/store"
)

func main() {
	fmt.Println("Hi")
}
