// Package manifest loads batch ticket manifests: YAML files listing tickets
// that are created without consulting the drafting agent.
//
//	defaults:
//	  type: Task
//	  labels: [q3]
//	tickets:
//	  - summary: Add audit log
//	    description: |
//	      # Goal
//	      Record every **admin** action.
//	    subtasks:
//	      - summary: Schema change
package manifest
