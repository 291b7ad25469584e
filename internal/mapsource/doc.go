// Package mapsource supplies polar TEC maps to a labelling session.
//
// A map is identified by a Key of (year, month, index), where index is the
// position of the map inside its monthly bundle. Bundles are JSON files,
// optionally gzip compressed, named like 2014_02_tec.json.gz. Demo produces
// synthetic maps for trying the tool without data.
package mapsource
