package main

import (
	"flag"
	"log"

	"github.com/tsurumi/riders_browser/config"
	"github.com/tsurumi/riders_browser/vfs"
	"github.com/tsurumi/riders_browser/web"

	_ "github.com/tsurumi/riders_browser/pack/gvrarc"
	_ "github.com/tsurumi/riders_browser/pack/packman"
)

func main() {
	var addr, dir, webDir, encoding, settingsPath string
	var runParseCheck bool
	flag.StringVar(&addr, "i", "", "Address of server")
	flag.StringVar(&dir, "dir", "", "Path to directory with extracted game files")
	flag.StringVar(&webDir, "web", "", "Path to directory with web frontend files")
	flag.StringVar(&encoding, "encoding", "", "Name encoding of archives (see golang.org/x/text charmaps)")
	flag.StringVar(&settingsPath, "settings", "riders_browser.yaml", "Path to yaml settings file")
	flag.BoolVar(&runParseCheck, "parsecheck", false, "Parse every archive in -dir and report problems, do not start server")
	flag.Parse()

	settings, err := config.LoadSettings(settingsPath)
	if err != nil {
		log.Fatal(err)
	}

	// flags win over the settings file
	if addr != "" {
		settings.ListenAddr = addr
	}
	if dir != "" {
		settings.ContentDir = dir
	}
	if webDir != "" {
		settings.WebDir = webDir
	}
	if encoding != "" {
		if err := config.SetEncoding(encoding); err != nil {
			log.Fatal(err)
		}
	}

	if settings.ContentDir == "" {
		flag.PrintDefaults()
		return
	}

	rootfs := vfs.NewDirectoryDriver(settings.ContentDir)

	if runParseCheck {
		parseCheck(rootfs)
		return
	}

	if err := web.StartServer(settings.ListenAddr, rootfs, settings.WebDir); err != nil {
		log.Fatal(err)
	}
}
