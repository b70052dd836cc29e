package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fulldump/goconfig"

	"github.com/fulldump/hyperpool/bootstrap"
	"github.com/fulldump/hyperpool/configuration"
)

var banner = `
 _   _                                        _ 
| | | |_   _ _ __   ___ _ __ _ __   ___   ___ | |
| |_| | | | | '_ \ / _ \ '__| '_ \ / _ \ / _ \| |
|  _  | |_| | |_) |  __/ |  | |_) | (_) | (_) | |
|_| |_|\__, | .__/ \___|_|  | .__/ \___/ \___/|_|
       |___/|_|             |_|  version ` + bootstrap.VERSION + `
`

func main() {

	c := configuration.Default()
	goconfig.Read(&c)

	if c.Version {
		fmt.Println("Version:", bootstrap.VERSION)
		return
	}

	if c.ShowBanner {
		fmt.Println(banner)
	}

	if c.ShowConfig {
		e := json.NewEncoder(os.Stdout)
		e.SetIndent("", "    ")
		e.Encode(c)
	}

	err := c.Validate()
	if err != nil {
		fmt.Println("ERROR:", err.Error())
		os.Exit(-1)
	}

	start, _ := bootstrap.Bootstrap(&c)
	start()
}
