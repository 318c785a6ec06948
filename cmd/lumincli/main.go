// Copyright (c) 2020 lumin3d
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command lumincli dumps the Vulkan physical devices visible to the
// system loader as JSON. It runs headless, no window system needed.
package main

import (
	"encoding/json"
	"flag"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/lumin3d/lumin/gfx"
)

var (
	pretty = flag.Bool("pretty", false, "Indent the JSON output")
	debug  = flag.Bool("vkdbg", false, "Load Vulkan validation layers")
)

func main() {
	flag.Parse()

	instance, err := gfx.NewVulkanInstance(gfx.DefaultApplicationInfo, nil, gfx.InstanceConfiguration{
		Validation: *debug,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer instance.Destroy()

	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(instance.PhysicalDevicesInfo()); err != nil {
		log.Fatal(err)
	}
}
