package web

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/tsurumi/riders_browser/config"
	"github.com/tsurumi/riders_browser/pack"
	file_gvr "github.com/tsurumi/riders_browser/pack/gvr"
	file_gvrarc "github.com/tsurumi/riders_browser/pack/gvrarc"
	file_packman "github.com/tsurumi/riders_browser/pack/packman"
	"github.com/tsurumi/riders_browser/status"
	"github.com/tsurumi/riders_browser/utils"
	"github.com/tsurumi/riders_browser/vfs"
	"github.com/tsurumi/riders_browser/webutils"
)

var textureNames utils.RandomNameGenerator

func HandlerAjaxPack(w http.ResponseWriter, r *http.Request) {
	if files, err := ServerDirectory.List(); err != nil {
		webutils.WriteError(w, err)
	} else {
		sort.Strings(files)
		webutils.WriteJson(w, files)
	}
}

func HandlerAjaxEncodings(w http.ResponseWriter, r *http.Request) {
	webutils.WriteJson(w, config.ListEncodings())
}

// HandlerAjaxSettings returns the active settings. With an
// ?encoding=NAME query arg it switches the name charmap first and
// persists the choice to the settings file.
func HandlerAjaxSettings(w http.ResponseWriter, r *http.Request) {
	if name := r.URL.Query().Get("encoding"); name != "" {
		if err := config.ApplyEncoding(name); err != nil {
			webutils.WriteError(w, err)
			return
		}
		status.Info("Switched name encoding to %s", name)
	}
	webutils.WriteJson(w, config.Current())
}

type packmanFolderView struct {
	ID        uint16
	IDValid   bool
	FileSizes []int
}

type packmanView struct {
	Kind    string
	Folders []packmanFolderView
}

type gvrarcView struct {
	Kind     string
	Archive  *file_gvrarc.Archive
	Textures []string
}

func HandlerAjaxPackFile(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	data, err := pack.GetInstanceHandler(ServerDirectory, file)
	if err != nil {
		log.Printf("Error getting file from pack: %v", err)
		webutils.WriteError(w, err)
		return
	}

	switch inst := data.(type) {
	case *file_gvrarc.Archive:
		names := make([]string, 0, len(inst.Textures))
		for _, tex := range inst.Textures {
			names = append(names, tex.Name)
		}
		webutils.WriteJson(w, &gvrarcView{Kind: "gvrarc", Archive: inst, Textures: names})
	case *file_packman.Archive:
		view := &packmanView{Kind: "packman"}
		for _, folder := range inst.Folders {
			fv := packmanFolderView{ID: folder.ID, IDValid: folder.IDValid}
			for _, f := range folder.Files {
				fv.FileSizes = append(fv.FileSizes, len(f.Data))
			}
			view.Folders = append(view.Folders, fv)
		}
		webutils.WriteJson(w, view)
	default:
		webutils.WriteJson(w, data)
	}
}

func HandlerDumpPackFile(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	f, err := vfs.DirectoryGetFile(ServerDirectory, file)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}

	if reader, err := vfs.OpenFileAndGetReader(f, true); err == nil {
		defer f.Close()
		webutils.WriteFile(w, reader, file)
	} else {
		fmt.Fprintf(w, "Error getting file reader: %v", err)
	}
}

// splitPackManParam parses "folder" or "folder.file" indices.
func splitPackManParam(param string) (folder int, file int, hasFile bool, err error) {
	parts := strings.SplitN(param, ".", 2)
	if folder, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, false, fmt.Errorf("param '%s' is not a folder index", param)
	}
	if len(parts) == 1 {
		return folder, 0, false, nil
	}
	if file, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, false, fmt.Errorf("param '%s' is not a folder.file index pair", param)
	}
	return folder, file, true, nil
}

func HandlerDumpPackParamFile(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	param := mux.Vars(r)["param"]
	data, err := pack.GetInstanceHandler(ServerDirectory, file)
	if err != nil {
		log.Printf("Error getting file from pack: %v", err)
		webutils.WriteError(w, err)
		return
	}

	switch inst := data.(type) {
	case *file_gvrarc.Archive:
		index, err := strconv.Atoi(param)
		if err != nil {
			webutils.WriteError(w, fmt.Errorf("param '%s' is not integer", param))
			return
		}
		if index < 0 || index >= len(inst.Textures) {
			webutils.WriteError(w, fmt.Errorf("texture %d out of range", index))
			return
		}
		tex := inst.Textures[index]
		name := tex.Name
		if name == "" {
			name = "unnamed"
		}
		webutils.WriteFile(w, bytes.NewReader(tex.Data), name+".gvr")
	case *file_packman.Archive:
		folder, fileIdx, hasFile, err := splitPackManParam(param)
		if err != nil || !hasFile {
			webutils.WriteError(w, fmt.Errorf("param '%s' must be folder.file", param))
			return
		}
		if folder < 0 || folder >= len(inst.Folders) ||
			fileIdx < 0 || fileIdx >= len(inst.Folders[folder].Files) {
			webutils.WriteError(w, fmt.Errorf("file %s out of range", param))
			return
		}
		f := inst.Folders[folder].Files[fileIdx]
		webutils.WriteFile(w, bytes.NewReader(f.Data), fmt.Sprintf("%s_%s.bin", file, param))
	default:
		webutils.WriteError(w, fmt.Errorf("File %s not contain subdata", file))
	}
}

func HandlerUploadPackFile(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]

	data, _, err := webutils.ReadFormFile(r, "data")
	if err != nil {
		webutils.WriteError(w, err)
		return
	}

	f, err := vfs.DirectoryGetFile(ServerDirectory, file)
	if err != nil {
		// not there yet, create it
		if f, err = ServerDirectory.Add(file); err != nil {
			webutils.WriteError(w, err)
			return
		}
	}

	if err := vfs.WriteFile(f, data); err != nil {
		status.Error("Upload of %s failed: %v", file, err)
		webutils.WriteError(w, err)
		return
	}

	pack.FlushInstance(file)
	status.Info("Uploaded %s (%d bytes)", file, len(data))
	webutils.WriteJson(w, "ok")
}

func HandlerUploadPackFileParam(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	param := mux.Vars(r)["param"]

	inst, err := pack.GetInstanceHandler(ServerDirectory, file)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}

	data, uploadName, err := webutils.ReadFormFile(r, "data")
	if err != nil {
		webutils.WriteError(w, err)
		return
	}

	switch arc := inst.(type) {
	case *file_gvrarc.Archive:
		if param == "new" {
			name := strings.SplitN(uploadName, ".", 2)[0]
			if name == "" {
				name = textureNames.RandomName()
			}
			tex, err := file_gvr.Extract(name, data, 0)
			if err != nil {
				webutils.WriteError(w, err)
				return
			}
			arc.Append(tex)
			status.Info("Added texture %q to %s", name, file)
			webutils.WriteJson(w, "ok")
			return
		}

		index, err := strconv.Atoi(param)
		if err != nil {
			webutils.WriteError(w, fmt.Errorf("param '%s' is not integer", param))
			return
		}
		if index < 0 || index >= len(arc.Textures) {
			webutils.WriteError(w, fmt.Errorf("texture %d out of range", index))
			return
		}
		tex, err := file_gvr.Extract(arc.Textures[index].Name, data, 0)
		if err != nil {
			webutils.WriteError(w, err)
			return
		}
		arc.Textures[index] = tex
		status.Info("Replaced texture %d of %s", index, file)
		webutils.WriteJson(w, "ok")
	case *file_packman.Archive:
		folder, fileIdx, hasFile, err := splitPackManParam(param)
		if err != nil {
			webutils.WriteError(w, err)
			return
		}
		if hasFile {
			err = arc.ReplaceFile(folder, fileIdx, data)
		} else {
			err = arc.AddFile(folder, file_packman.NewFile(data))
		}
		if err != nil {
			webutils.WriteError(w, err)
			return
		}
		status.Info("Stored %d bytes into %s of %s", len(data), param, file)
		webutils.WriteJson(w, "ok")
	default:
		webutils.WriteError(w, fmt.Errorf("File %s not contain subdata", file))
	}
}

func HandlerActionFile(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	action := mux.Vars(r)["action"]

	inst, err := pack.GetInstanceHandler(ServerDirectory, file)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}

	q := r.URL.Query()
	qInt := func(key string) (int, error) {
		v, err := strconv.Atoi(q.Get(key))
		if err != nil {
			return 0, fmt.Errorf("query arg '%s'='%s' is not integer", key, q.Get(key))
		}
		return v, nil
	}

	switch arc := inst.(type) {
	case *file_gvrarc.Archive:
		err = actionTextureArchive(arc, action, q.Get("name"), qInt)
	case *file_packman.Archive:
		err = actionPackMan(arc, action, qInt)
	default:
		err = fmt.Errorf("File %s does not support actions", file)
	}

	if err != nil {
		status.Error("%s on %s failed: %v", action, file, err)
		webutils.WriteError(w, err)
		return
	}

	status.Info("Applied %s to %s", action, file)
	webutils.WriteJson(w, "ok")
}

func actionTextureArchive(arc *file_gvrarc.Archive, action, name string, qInt func(string) (int, error)) error {
	switch action {
	case "save":
		if len(arc.Textures) == 0 {
			return fmt.Errorf("refusing to save archive with no textures")
		}
		return arc.Save()
	case "remove":
		i, err := qInt("index")
		if err != nil {
			return err
		}
		return arc.Remove(i)
	case "swap":
		a, err := qInt("a")
		if err != nil {
			return err
		}
		b, err := qInt("b")
		if err != nil {
			return err
		}
		return arc.Swap(a, b)
	case "rename":
		i, err := qInt("index")
		if err != nil {
			return err
		}
		return arc.Rename(i, name)
	case "duplicate":
		i, err := qInt("index")
		if err != nil {
			return err
		}
		return arc.Duplicate(i)
	}
	return fmt.Errorf("unknown texture archive action '%s'", action)
}

func actionPackMan(arc *file_packman.Archive, action string, qInt func(string) (int, error)) error {
	switch action {
	case "save":
		return arc.Save()
	case "addfolder":
		id, err := qInt("id")
		if err != nil {
			return err
		}
		if id < 0 || id > 0xffff {
			return fmt.Errorf("folder ID %d out of u16 range", id)
		}
		arc.AddFolder(file_packman.NewFolder(uint16(id)))
		return nil
	case "removefolder":
		i, err := qInt("folder")
		if err != nil {
			return err
		}
		return arc.RemoveFolder(i)
	case "swapfolders":
		a, err := qInt("a")
		if err != nil {
			return err
		}
		b, err := qInt("b")
		if err != nil {
			return err
		}
		return arc.SwapFolders(a, b)
	case "setid":
		i, err := qInt("folder")
		if err != nil {
			return err
		}
		id, err := qInt("id")
		if err != nil {
			return err
		}
		if id < 0 || id > 0xffff {
			return fmt.Errorf("folder ID %d out of u16 range", id)
		}
		return arc.SetFolderID(i, uint16(id))
	case "removefile":
		folder, err := qInt("folder")
		if err != nil {
			return err
		}
		file, err := qInt("file")
		if err != nil {
			return err
		}
		return arc.RemoveFile(folder, file)
	case "swapfiles":
		folder, err := qInt("folder")
		if err != nil {
			return err
		}
		a, err := qInt("a")
		if err != nil {
			return err
		}
		b, err := qInt("b")
		if err != nil {
			return err
		}
		return arc.SwapFiles(folder, a, b)
	}
	return fmt.Errorf("unknown packman action '%s'", action)
}
