// Copyright 2016 Apcera Inc. All rights reserved.

package main

import (
	"net/url"
	"runtime"

	"github.com/apcera/logray"

	binit "github.com/apcera/ember/init"
	"github.com/apcera/ember/launch"
	"github.com/apcera/ember/registry"
	"github.com/apcera/ember/system"

	_ "github.com/apcera/ember/apps/hello"
)

const (
	formatString = "%color:class%[%classfixed%]%color:default% %message%"
)

func main() {
	u := url.URL{
		Scheme: "stdout",
		RawQuery: url.Values(map[string][]string{
			"format": []string{formatString},
		}).Encode(),
	}
	logray.AddDefaultOutput(u.String(), logray.ALL)

	sys := system.Linux()
	plan, err := binit.Run(registry.Default, sys)
	if err != nil {
		panic(err)
	}
	if err := launch.Run(plan, sys, logray.New()); err != nil {
		panic(err)
	}
	runtime.Goexit()
}
