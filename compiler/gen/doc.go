// Package gen provides the builder engine of omgen.
//
// This package turns a database schema into the PHP classes of its object
// model: for every table, a base object, query, peer and table map class,
// and the stubs users extend.
//
// # Architecture
//
// The generation pipeline follows this flow:
//
//	Schema file (schema.yaml)
//	        ↓
//	   load.Database (decoded definition)
//	        ↓
//	   Database (model with behaviors attached)
//	        ↓
//	   Builder per table and Artifact kind
//	        ↓
//	   Generated classes ({target}/{package}/...)
//
// # Key Types
//
//   - Database, Table, Column, ForeignKey: the schema model
//   - Artifact: one kind of generated class (see package om)
//   - Builder: builds one artifact for one table and resolves names
//   - Unit: the state of one build (script and imports)
//   - Behavior: named extension firing at the hooks of the builders
//   - Generator: builds every artifact and writes the files
//
// # Interface Hierarchy
//
// Artifacts implement the capabilities they need, detected by type
// assertion:
//
//	Artifact (Kind, UnprefixedClassName, ClassOpen, ClassBody, ClassClose)
//	├── Validator     rejects tables before any text is generated
//	├── IncludeAdder  emits require_once statements (addIncludes)
//	├── Subpackager   lives in a sub-package ("om", "map")
//	├── SubNamespacer lives in a sub-namespace
//	└── Stub          never overwritten once written
//
// # Error Handling
//
// The package uses structured error types:
//
//   - ArgumentError: a required reference was absent
//   - SchemaError: a name lookup failed or the schema is inconsistent
//   - ConfigError: a required build property is missing or invalid
//   - GenerationError: a phase of the generation failed
//   - ValidationError: an artifact rejected its table
//
// Example error handling:
//
//	db, err := gen.NewDatabase(config, def)
//	if err != nil {
//	    if gen.IsSchemaError(err) {
//	        // Handle schema-specific error
//	    }
//	    return err
//	}
//
// # Configuration
//
// Configuration is done via the functional options pattern:
//
//	config, err := gen.NewConfig(
//	    gen.WithTarget("./build/classes"),
//	    gen.WithTargetPackage("bookstore"),
//	    gen.WithFeatures(gen.FeatureStubs, gen.FeatureManifest),
//	    gen.WithBehaviorFactory(behavior.Factory),
//	)
//
// Build properties (classPrefix, addIncludes, namespace.om, ...) are set
// with WithProperty or loaded from an omgen.yaml file with LoadConfigFile.
//
// # Usage
//
//	def, err := load.File("schema.yaml")
//	db, err := gen.NewDatabase(config, def)
//	files, err := gen.NewGenerator(config, db, om.Kinds()).Generate(ctx)
//
// # Generated Output
//
//	{target}/
//	├── {package}/
//	│   ├── om/
//	│   │   ├── Base{Table}.php       // Base object
//	│   │   ├── Base{Table}Query.php  // Base query
//	│   │   └── Base{Table}Peer.php   // Base peer
//	│   ├── map/
//	│   │   └── {Table}TableMap.php   // Table map
//	│   ├── {Table}.php               // Stubs, never overwritten
//	│   ├── {Table}Query.php
//	│   └── {Table}Peer.php
//	├── schema.graphql                // sdl feature
//	└── omgen.manifest.json           // manifest feature
//
// # Features
//
//   - stubs: user-editable classes extending the base classes
//   - tablemap: table map classes
//   - sdl: GraphQL schema export
//   - manifest: JSON manifest with stable artifact identifiers
//   - cache: skip rewriting unchanged files
package gen
