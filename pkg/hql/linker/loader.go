// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package linker

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/boraseoksoon/hql/pkg/util/source"
)

// Loader supplies module source text to the linker.  Loading is the only
// point at which the compiler touches the outside world on the way in.
type Loader interface {
	// Load the source file stored at a given (already resolved) path.
	Load(path string) (*source.File, error)
	// Resolve a relative import specifier against the path of the importing
	// module.
	Resolve(from string, specifier string) string
}

// FileLoader reads modules from the local filesystem.
type FileLoader struct{}

var _ Loader = FileLoader{}

// Load implementation for Loader.
func (l FileLoader) Load(name string) (*source.File, error) {
	bytes, err := os.ReadFile(name)
	//
	if err != nil {
		return nil, err
	}
	//
	return source.NewSourceFile(name, bytes), nil
}

// Resolve implementation for Loader.
func (l FileLoader) Resolve(from string, specifier string) string {
	return filepath.Clean(filepath.Join(filepath.Dir(from), specifier))
}

// MapLoader serves modules from memory.  Intended for tests, and for any
// embedding which already holds its sources.
type MapLoader map[string]string

var _ Loader = MapLoader{}

// Load implementation for Loader.
func (l MapLoader) Load(name string) (*source.File, error) {
	text, ok := l[name]
	//
	if !ok {
		return nil, fmt.Errorf("unknown module \"%s\"", name)
	}
	//
	return source.NewSourceFile(name, []byte(text)), nil
}

// Resolve implementation for Loader.
func (l MapLoader) Resolve(from string, specifier string) string {
	return path.Clean(path.Join(path.Dir(from), specifier))
}
