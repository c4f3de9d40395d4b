package graph

// Upsert statements, one per load sub-step. Node merges match on the
// identity key and set every attribute, so re-loading updates in place.
// Relationship merges in Phase 2 MERGE (not MATCH) the endpoint that may
// legitimately be undeclared in the corpus, creating a placeholder node
// carrying only the identity key.

const mergeModules = `
UNWIND $modules AS module
MERGE (m:` + NodeModule + ` {name: module.name})
SET m.version = module.version,
    m.description = module.description,
    m.author = module.author,
    m.category = module.category,
    m.path = module.path,
    m.installable = module.installable,
    m.auto_install = module.auto_install
`

const mergeModels = `
UNWIND $models AS model
MERGE (m:` + NodeModel + ` {name: model.name})
SET m.description = model.description,
    m.module = model.module,
    m.file_path = model.file_path,
    m.class_name = model.class_name,
    m.model_type = model.model_type,
    m.is_abstract = model.is_abstract,
    m.is_extension = model.is_extension,
    m.is_transient = model.is_transient
`

const mergeViews = `
UNWIND $views AS view
MERGE (v:` + NodeView + ` {xml_id: view.xml_id})
SET v.name = view.name,
    v.model = view.model,
    v.view_type = view.view_type,
    v.module = view.module,
    v.file_path = view.file_path,
    v.priority = view.priority
`

const mergeFields = `
UNWIND $fields AS field
MERGE (f:` + NodeField + ` {model: field.model_name, name: field.field_name})
SET f.field_type = field.field_type,
    f.attributes = field.attributes
`

const mergeModuleDependencies = `
UNWIND $deps AS dep
MATCH (m1:` + NodeModule + ` {name: dep.from})
MERGE (m2:` + NodeModule + ` {name: dep.to})
MERGE (m1)-[:` + RelDependsOn + `]->(m2)
`

const mergeModelModules = `
UNWIND $rels AS rel
MATCH (mod:` + NodeModule + ` {name: rel.module})
MERGE (m:` + NodeModel + ` {name: rel.model})
MERGE (mod)-[:` + RelContainsModel + `]->(m)
`

const mergeModelInheritances = `
UNWIND $inh AS inh
MATCH (child:` + NodeModel + ` {name: inh.child})
MERGE (parent:` + NodeModel + ` {name: inh.parent})
MERGE (child)-[:` + RelInherits + `]->(parent)
`

const mergeModelDelegations = `
UNWIND $dels AS del
MATCH (child:` + NodeModel + ` {name: del.child})
MERGE (parent:` + NodeModel + ` {name: del.parent})
MERGE (child)-[r:` + RelInheritsDelegation + `]->(parent)
SET r.field = del.field
`

const mergeFieldModels = `
UNWIND $rels AS rel
MATCH (m:` + NodeModel + ` {name: rel.model_name})
MERGE (f:` + NodeField + ` {model: rel.model_name, name: rel.field_name})
MERGE (m)-[:` + RelHasField + `]->(f)
`

const mergeFieldReferences = `
UNWIND $refs AS ref
MATCH (f:` + NodeField + ` {model: ref.model_name, name: ref.field_name})
MERGE (target:` + NodeModel + ` {name: ref.related_model})
MERGE (f)-[:` + RelRelatesTo + `]->(target)
`

const mergeViewModules = `
UNWIND $rels AS rel
MATCH (mod:` + NodeModule + ` {name: rel.module})
MERGE (v:` + NodeView + ` {xml_id: rel.view_xml_id})
MERGE (mod)-[:` + RelContainsView + `]->(v)
`

const mergeViewModels = `
UNWIND $rels AS rel
MATCH (v:` + NodeView + ` {xml_id: rel.view_xml_id})
MERGE (m:` + NodeModel + ` {name: rel.model})
MERGE (v)-[:` + RelViewFor + `]->(m)
`

const mergeViewInheritances = `
UNWIND $inh AS inh
MATCH (child:` + NodeView + ` {xml_id: inh.child})
MERGE (parent:` + NodeView + ` {xml_id: inh.parent})
MERGE (child)-[:` + RelExtends + `]->(parent)
`
