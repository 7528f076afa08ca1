// Package wells turns tabular well data into line meshes.
//
// Inputs are already-parsed tables keyed by well id: collars (x, y, z),
// surveys (md, inc, azi) and optional assays sampled by measured depth.
// External column names are mapped to these canonical names with a ColumnMap,
// which is checked against the table before use:
//
//	cm := wells.ColumnMap{"DEPT": "md", "IMG_INCL": "inc", "IMG_AZ": "azi"}
//	survey, err := cm.Apply(raw)
//
// Builder desurveys each collar with the minimum curvature method and merges
// all wells into one mesh.UnstructuredData with two-vertex cells.
package wells
