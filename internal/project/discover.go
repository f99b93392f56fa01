package project

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// RequestsDirName holds the collection files of a project.
const RequestsDirName = "requests"

// environmentDirNames are the accepted environment directory names, in
// lookup order. The misspelled form is what existing repositories use.
var environmentDirNames = []string{"enviroment", "environment"}

// Pair is one unit of work: a collection run against an environment.
// Collection and Environment are absolute file paths.
type Pair struct {
	Project     string `json:"project"`
	Collection  string `json:"collection"`
	Environment string `json:"environment"`
}

// CollectionName returns the collection file name.
func (p Pair) CollectionName() string {
	return filepath.Base(p.Collection)
}

// EnvLabel returns the environment label.
func (p Pair) EnvLabel() string {
	return EnvLabel(p.Environment)
}

// EnvLabel returns the file name of an environment path without its extension.
func EnvLabel(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// EnvironmentDir returns the environment directory of a project, or "" when
// the project has none.
func EnvironmentDir(root, project string) string {
	for _, name := range environmentDirNames {
		dir := filepath.Join(root, project, name)
		if isDir(dir) {
			return dir
		}
	}
	return ""
}

// ListProjects returns the sorted names of the subdirectories of root that
// contain both a requests directory and an environment directory.
// A missing root yields no projects.
func ListProjects(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var projects []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		name := entry.Name()
		if isDir(filepath.Join(root, name, RequestsDirName)) && EnvironmentDir(root, name) != "" {
			projects = append(projects, name)
		}
	}
	sort.Strings(projects)
	return projects, nil
}

// ListJSONs returns the sorted absolute paths of the .json files in dir
// (extension matched case-insensitively). A missing directory yields none.
func ListJSONs(dir string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".json") {
			continue
		}
		files = append(files, filepath.Join(abs, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// Collections returns the collection files of a project.
func Collections(root, project string) ([]string, error) {
	return ListJSONs(filepath.Join(root, project, RequestsDirName))
}

// Environments returns the environment files of a project.
func Environments(root, project string) ([]string, error) {
	return ListJSONs(EnvironmentDir(root, project))
}

// AllPairs returns every collection of every project crossed with every
// environment of that project.
func AllPairs(root string) ([]Pair, error) {
	projects, err := ListProjects(root)
	if err != nil {
		return nil, err
	}

	var pairs []Pair
	for _, proj := range projects {
		p, err := PairsFor(root, proj, "")
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, p...)
	}
	return pairs, nil
}

// PairsFor returns the collections of one project crossed with its
// environments. When env is non-empty only the environment whose label or
// file name equals env is used.
func PairsFor(root, project, env string) ([]Pair, error) {
	collections, err := Collections(root, project)
	if err != nil {
		return nil, err
	}
	envs, err := Environments(root, project)
	if err != nil {
		return nil, err
	}

	if env != "" {
		path, err := FindEnvironment(envs, env)
		if err != nil {
			return nil, fmt.Errorf("project %q: %w", project, err)
		}
		envs = []string{path}
	}

	var pairs []Pair
	for _, col := range collections {
		for _, e := range envs {
			pairs = append(pairs, Pair{Project: project, Collection: col, Environment: e})
		}
	}
	return pairs, nil
}

// FindEnvironment selects the environment whose label or file name is name.
func FindEnvironment(envs []string, name string) (string, error) {
	for _, e := range envs {
		if EnvLabel(e) == name || filepath.Base(e) == name {
			return e, nil
		}
	}
	return "", fmt.Errorf("environment %q not found", name)
}
